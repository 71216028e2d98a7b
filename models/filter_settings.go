package models

// FloatPtr and BoolPtr build pointers for settings fields that distinguish
// "not set" (nil) from an explicit zero/false value.
func FloatPtr(v float64) *float64 { return &v }
func BoolPtr(v bool) *bool        { return &v }

// FloatVal and BoolVal dereference a settings pointer, falling back to def when nil.
func FloatVal(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func BoolVal(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// HDRDVPolicy determines what HDR/DV content to exclude from search results.
type HDRDVPolicy string

const (
	// HDRDVPolicyNoExclusion excludes all HDR/DV content - only SDR allowed.
	HDRDVPolicyNoExclusion HDRDVPolicy = "none"
	// HDRDVPolicyIncludeHDR allows HDR and DV profile 7/8 (DV profile 5 rejected at probe time).
	HDRDVPolicyIncludeHDR HDRDVPolicy = "hdr"
	// HDRDVPolicyIncludeHDRDV allows all content including all DV profiles - no filtering.
	HDRDVPolicyIncludeHDRDV HDRDVPolicy = "hdr_dv"
)

// FilterSettings controls content filtering preferences for a search.
// Pointer types with omitempty allow distinguishing between "not set" (nil)
// and "set to zero/false".
type FilterSettings struct {
	MaxSizeMovieGB                   *float64    `json:"maxSizeMovieGb,omitempty"`
	MaxSizeEpisodeGB                 *float64    `json:"maxSizeEpisodeGb,omitempty"`
	MaxResolution                    string      `json:"maxResolution,omitempty"`
	HDRDVPolicy                      HDRDVPolicy `json:"hdrDvPolicy,omitempty"`
	PrioritizeHdr                    *bool       `json:"prioritizeHdr,omitempty"`
	FilterOutTerms                   []string    `json:"filterOutTerms,omitempty"`
	PreferredTerms                   []string    `json:"preferredTerms,omitempty"`
	BypassFilteringForAIOStreamsOnly *bool       `json:"bypassFilteringForAioStreamsOnly,omitempty"`
}

// ClientFilterSettings contains per-client filtering overrides, applied on
// top of the profile/global FilterSettings cascade. Pointer fields distinguish
// "not set" (nil = inherit) from an explicit value.
type ClientFilterSettings struct {
	MaxSizeMovieGB                   *float64     `json:"maxSizeMovieGb,omitempty"`
	MaxSizeEpisodeGB                 *float64     `json:"maxSizeEpisodeGb,omitempty"`
	MaxResolution                    *string      `json:"maxResolution,omitempty"`
	HDRDVPolicy                      *HDRDVPolicy `json:"hdrDvPolicy,omitempty"`
	PrioritizeHdr                    *bool        `json:"prioritizeHdr,omitempty"`
	FilterOutTerms                   *[]string    `json:"filterOutTerms,omitempty"`
	PreferredTerms                   *[]string    `json:"preferredTerms,omitempty"`
	BypassFilteringForAIOStreamsOnly *bool        `json:"bypassFilteringForAioStreamsOnly,omitempty"`
}

// IsEmpty reports whether no client overrides are configured.
func (c *ClientFilterSettings) IsEmpty() bool {
	return c.MaxSizeMovieGB == nil &&
		c.MaxSizeEpisodeGB == nil &&
		c.MaxResolution == nil &&
		c.HDRDVPolicy == nil &&
		c.PrioritizeHdr == nil &&
		c.FilterOutTerms == nil &&
		c.PreferredTerms == nil &&
		c.BypassFilteringForAIOStreamsOnly == nil
}

// UserSettings holds the filtering profile associated with a search-time
// user id. This repo carries only the filtering slice of the teacher's
// per-user settings document — account/profile management itself is out
// of scope.
type UserSettings struct {
	Filtering FilterSettings `json:"filtering"`
}

// DefaultFilterSettings returns the baseline filtering profile applied when
// no per-user or per-client override is present.
func DefaultFilterSettings() FilterSettings {
	return FilterSettings{
		MaxSizeMovieGB:   FloatPtr(0),
		MaxSizeEpisodeGB: FloatPtr(0),
		HDRDVPolicy:      HDRDVPolicyNoExclusion,
		PrioritizeHdr:    BoolPtr(true),
	}
}
