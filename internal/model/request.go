package model

import (
	"strings"

	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/utils"
)

// MissingFieldsMessage is the user facing text for an incomplete identity.
const MissingFieldsMessage = "Please provide either a placeUrl or both businessName and area"

// AuditRequest identifies the business to audit. It is an immutable value.
type AuditRequest struct {
	// SubjectName is the business name as typed by the caller.
	SubjectName string `json:"businessName,omitempty"`

	// Area is the locality used to disambiguate SubjectName.
	Area string `json:"area,omitempty"`

	// ResourceRef, when set, points directly at the listing and bypasses
	// the name/area search.
	ResourceRef string `json:"placeUrl,omitempty"`
}

// HasRef reports whether the request carries a direct listing reference.
func (r AuditRequest) HasRef() bool {
	return strings.TrimSpace(r.ResourceRef) != ""
}

// HasIdentity reports whether both SubjectName and Area are non-blank.
func (r AuditRequest) HasIdentity() bool {
	return strings.TrimSpace(r.SubjectName) != "" && strings.TrimSpace(r.Area) != ""
}

// Validate returns a MISSING_FIELDS error unless the request carries either a
// usable ResourceRef or both SubjectName and Area.
func (r AuditRequest) Validate() error {
	if r.HasIdentity() {
		return nil
	}
	if r.HasRef() {
		if _, err := utils.CanonicalizeRef(r.ResourceRef); err != nil {
			return auditerr.Wrap(err, auditerr.CodeMissingFields, "placeUrl is not a valid listing URL")
		}
		return nil
	}
	return auditerr.New(auditerr.CodeMissingFields, MissingFieldsMessage)
}

// Key returns the cache key for the request. Name and area are normalised so
// that case and whitespace variants share an entry; reference-only requests
// are keyed by the canonical reference.
func (r AuditRequest) Key() string {
	if r.HasIdentity() {
		return NormalizeKeyPart(r.SubjectName) + "|" + NormalizeKeyPart(r.Area)
	}
	if r.HasRef() {
		ref, err := utils.CanonicalizeRef(r.ResourceRef)
		if err != nil {
			ref = strings.TrimSpace(r.ResourceRef)
		}
		return "ref|" + ref
	}
	return ""
}

// Label is a short human description used in logs and messages.
func (r AuditRequest) Label() string {
	if r.HasIdentity() {
		return utils.CollapseSpace(r.SubjectName) + " in " + utils.CollapseSpace(r.Area)
	}
	return strings.TrimSpace(r.ResourceRef)
}

// NormalizeKeyPart lower-cases, collapses whitespace and trims s.
func NormalizeKeyPart(s string) string {
	return utils.NormalizeSpace(s)
}
