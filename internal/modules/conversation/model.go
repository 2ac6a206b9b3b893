// README: Conversation states, channels and the persisted per-phone dialogue record.
package conversation

import (
	"errors"
	"time"

	"ridesafe/internal/modules/profile"
	"ridesafe/internal/types"
)

var (
	ErrConflict          = errors.New("conversation modified concurrently")
	ErrUnknownState      = errors.New("unknown conversation state")
	ErrInvalidTransition = errors.New("invalid conversation transition")
)

type State string

const (
	StateNone                 State = "NONE"
	StateAwaitingProfileName  State = "AWAITING_PROFILE_NAME"
	StateAwaitingGender       State = "AWAITING_GENDER"
	StateAwaitingZip          State = "AWAITING_ZIP"
	StateAwaitingRideBooking  State = "AWAITING_RIDE_BOOKING"
	StateMenuChoice           State = "MENU_CHOICE"
	StateAwaitingPickup       State = "AWAITING_PICKUP"
	StateAwaitingDestination  State = "AWAITING_DESTINATION_ADDRESS"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateAwaitingNewPickup    State = "AWAITING_NEW_PICKUP"
	StateAwaitingNewDest      State = "AWAITING_NEW_DESTINATION"
	StateUpdatingZip          State = "UPDATING_ZIP"
)

// AllStates is the closed set of conversation states.
var AllStates = []State{
	StateNone,
	StateAwaitingProfileName,
	StateAwaitingGender,
	StateAwaitingZip,
	StateAwaitingRideBooking,
	StateMenuChoice,
	StateAwaitingPickup,
	StateAwaitingDestination,
	StateAwaitingConfirmation,
	StateAwaitingNewPickup,
	StateAwaitingNewDest,
	StateUpdatingZip,
}

func (s State) Valid() bool {
	for _, v := range AllStates {
		if v == s {
			return true
		}
	}
	return false
}

// Registration reports whether s belongs to profile creation.
func (s State) Registration() bool {
	return s == StateAwaitingProfileName || s == StateAwaitingGender || s == StateAwaitingZip
}

// voiceOnly states collect input that only the voice channel produces.
func (s State) voiceOnly() bool {
	return s == StateMenuChoice || s == StateAwaitingPickup || s == StateAwaitingDestination
}

// AllowedTransitions represents the conversation flow (diagram) as code.
// Every state may also stay where it is, end the conversation (NONE), and,
// once a profile exists, jump to UPDATING_ZIP; see CanTransition.
var AllowedTransitions = map[State][]State{
	StateNone:                 {StateAwaitingProfileName, StateMenuChoice, StateAwaitingRideBooking, StateAwaitingConfirmation},
	StateAwaitingProfileName:  {StateAwaitingGender},
	StateAwaitingGender:       {StateAwaitingZip},
	StateAwaitingZip:          {StateAwaitingRideBooking, StateAwaitingPickup},
	StateAwaitingRideBooking:  {StateAwaitingConfirmation, StateMenuChoice},
	StateMenuChoice:           {StateAwaitingPickup, StateAwaitingConfirmation},
	StateAwaitingPickup:       {StateAwaitingDestination, StateAwaitingConfirmation},
	StateAwaitingDestination:  {StateAwaitingConfirmation},
	StateAwaitingConfirmation: {StateAwaitingNewPickup, StateAwaitingNewDest},
	StateAwaitingNewPickup:    {StateAwaitingConfirmation},
	StateAwaitingNewDest:      {StateAwaitingConfirmation},
	StateUpdatingZip:          {StateAwaitingRideBooking, StateAwaitingPickup},
}

func CanTransition(from, to State) bool {
	if from == to || to == StateNone {
		return true
	}
	if to == StateUpdatingZip && !from.Registration() {
		return true
	}
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Channel string

const (
	ChannelSMS      Channel = "SMS"
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelVoice    Channel = "IVR"
)

func (c Channel) Valid() bool {
	return c == ChannelSMS || c == ChannelWhatsApp || c == ChannelVoice
}

// Conversation is the in-progress dialogue for one phone. It is replaced
// wholesale on every step; Version increments with each write.
type Conversation struct {
	Phone        types.Phone
	State        State
	Token        string
	Gender       profile.Gender
	Zip          string
	Pickup       string
	Destination  string
	TravelTime   string
	SuggestedZip string
	Channel      Channel
	Retries      int
	Version      int
	UpdatedAt    time.Time
}

// Leg is one side of a trip.
type Leg string

const (
	LegPickup      Leg = "pickup"
	LegDestination Leg = "destination"
)
