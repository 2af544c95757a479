package models

import dErrors "complaintdesk/pkg/domain-errors"

// Channel is the intake medium of a complaint.
type Channel string

const (
	ChannelOnline Channel = "ONLINE"
	ChannelPhone  Channel = "PHONE"
	ChannelLetter Channel = "LETTER"
	ChannelWalkIn Channel = "WALK_IN"
)

// Channels lists the supported intake channels.
var Channels = []Channel{ChannelOnline, ChannelPhone, ChannelLetter, ChannelWalkIn}

func ParseChannel(s string) (Channel, error) {
	for _, c := range Channels {
		if string(c) == s {
			return c, nil
		}
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid channel")
}

// ComplaintType distinguishes cases opened from an arrest from general complaints.
type ComplaintType string

const (
	TypeArrest  ComplaintType = "ARREST"
	TypeGeneral ComplaintType = "GENERAL"
)

func ParseComplaintType(s string) (ComplaintType, error) {
	switch ComplaintType(s) {
	case TypeArrest, TypeGeneral:
		return ComplaintType(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid complaint type")
}

// LegalAction is the outcome category of an investigation.
type LegalAction string

const (
	LegalActionNone        LegalAction = "NONE"
	LegalActionFine        LegalAction = "FINE"
	LegalActionProsecution LegalAction = "PROSECUTION"
)

func ParseLegalAction(s string) (LegalAction, error) {
	switch LegalAction(s) {
	case LegalActionNone, LegalActionFine, LegalActionProsecution:
		return LegalAction(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid legal action")
}

// DeliveryChannel is how the complainant wants to receive the official letter.
type DeliveryChannel string

const (
	DeliveryEmail DeliveryChannel = "EMAIL"
	DeliveryPost  DeliveryChannel = "POST"
)

func ParseDeliveryChannel(s string) (DeliveryChannel, error) {
	switch DeliveryChannel(s) {
	case DeliveryEmail, DeliveryPost:
		return DeliveryChannel(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid letter delivery channel")
}
