package model

import "time"

// RawFacts is the flat record of observable listing attributes produced by a
// single extraction. Every field is optional; absence is distinct from a
// negative observation. It is read-only once produced.
type RawFacts struct {
	// Descriptive
	Name       Opt[string] `json:"name,omitzero"`
	PhotoURL   Opt[string] `json:"photoUrl,omitzero"`
	ListingURL Opt[string] `json:"listingUrl,omitzero"`

	// Primary listing
	IsClaimed          Opt[bool]    `json:"isClaimed,omitzero"`
	Rating             Opt[float64] `json:"rating,omitzero"`
	ReviewCount        Opt[int]     `json:"reviewCount,omitzero"`
	LatestReviewAge    Opt[string]  `json:"latestReviewAge,omitzero"`
	OwnerResponseCount Opt[int]     `json:"ownerResponseCount,omitzero"`
	HasOwnerPhotos     Opt[bool]    `json:"hasOwnerPhotos,omitzero"`
	HoursPublished     Opt[bool]    `json:"hoursPublished,omitzero"`
	Phone              Opt[string]  `json:"phone,omitzero"`
	Address            Opt[string]  `json:"address,omitzero"`

	// Other surfaces
	SecondaryListing Opt[bool]   `json:"secondaryListing,omitzero"`
	Website          Opt[string] `json:"website,omitzero"`

	// CapturedAt is when the extraction finished.
	CapturedAt time.Time `json:"capturedAt,omitzero"`
}
