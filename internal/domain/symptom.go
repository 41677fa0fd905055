// Package domain contains core domain types for the health monitor.
package domain

import (
	"strings"
	"time"
)

// BodyPart identifies the region of the patient figure a complaint is
// attached to.
type BodyPart string

// Body regions the intake accepts. The set matches the selectable regions
// on the patient figure in the companion frontend.
const (
	BodyPartHead    BodyPart = "Head"
	BodyPartNeck    BodyPart = "Neck"
	BodyPartChest   BodyPart = "Chest"
	BodyPartBack    BodyPart = "Back"
	BodyPartAbdomen BodyPart = "Abdomen"
	BodyPartArm     BodyPart = "Arm"
	BodyPartHand    BodyPart = "Hand"
	BodyPartLeg     BodyPart = "Leg"
	BodyPartKnee    BodyPart = "Knee"
	BodyPartFoot    BodyPart = "Foot"
)

// KnownBodyParts returns every accepted body part in display order.
func KnownBodyParts() []BodyPart {
	return []BodyPart{
		BodyPartHead, BodyPartNeck, BodyPartChest, BodyPartBack,
		BodyPartAbdomen, BodyPartArm, BodyPartHand, BodyPartLeg,
		BodyPartKnee, BodyPartFoot,
	}
}

// IsValid returns true if b is one of the known body parts.
func (b BodyPart) IsValid() bool {
	for _, known := range KnownBodyParts() {
		if b == known {
			return true
		}
	}
	return false
}

// ParseBodyPart matches s against the known body parts, ignoring case and
// surrounding whitespace.
func ParseBodyPart(s string) (BodyPart, bool) {
	trimmed := strings.TrimSpace(s)
	for _, known := range KnownBodyParts() {
		if strings.EqualFold(trimmed, string(known)) {
			return known, true
		}
	}
	return "", false
}

// SymptomEntry is a single reported complaint together with the advice
// generated for it. Entries are immutable once stored.
type SymptomEntry struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	BodyPart   BodyPart  `json:"body_part"`
	ReportedAt time.Time `json:"reported_at"`
	Advice     string    `json:"advice,omitempty"`
}
