package conversation

import (
	"errors"
	"fmt"
	"strings"

	"ridesafe/internal/modules/address"
	"ridesafe/internal/modules/profile"
	"ridesafe/internal/modules/ride"
)

// Script renders the logical prompts of the dialogue for one channel. The
// engine decides what to say; the script decides how it reads or sounds.
type Script interface {
	Welcome() Reply
	InvalidToken() Reply
	AskGender() Reply
	InvalidGender() Reply
	AskZip() Reply
	InvalidZip() Reply
	ProfileCreated(p profile.Profile) Reply
	Menu() Reply
	InvalidMenu() Reply
	BookingFormat() Reply
	AskPickup() Reply
	PickupReceived() Reply
	AskDestination() Reply
	AddressError(leg Leg, msg string) Reply
	TravelTimeError() Reply
	Confirm(pickup, destination, travelTime string) Reply
	InvalidConfirmation() Reply
	RideConfirmed(r ride.Ride) Reply
	AskNewAddress(leg Leg) Reply
	AskNewZip() Reply
	ZipUpdated(p profile.Profile) Reply
	SuggestedZipApplied(zip string) Reply
	RetriesExhausted() Reply
}

func ScriptFor(c Channel) Script {
	switch c {
	case ChannelWhatsApp:
		return textScript{m: whatsappMessages}
	case ChannelVoice:
		return voiceScript{}
	default:
		return textScript{m: smsMessages}
	}
}

const travelTimeErrorText = "Error calculating travel time. Please check your addresses."

// describeAddressError turns a resolver failure into the sentence shown to the user.
func describeAddressError(err error) string {
	var tooFar *address.TooFarError
	var oracle *address.OracleError
	switch {
	case errors.As(err, &tooFar) && !profile.ValidZip(tooFar.SuggestedZip):
		return fmt.Sprintf("Address seems far from your registered zip code %s. "+
			"Provide a different address or text # to change your zip code.", tooFar.ReferenceZip)
	case errors.As(err, &tooFar):
		return fmt.Sprintf("Address seems far from your registered zip code %s. Suggested zip code: %s. "+
			"Reply with 'UPDATE ZIP' to update or provide a different address.", tooFar.ReferenceZip, tooFar.SuggestedZip)
	case errors.Is(err, address.ErrAddressNotFound):
		return "Address not found. Please provide a more specific address."
	case errors.As(err, &oracle) && oracle.Status != "":
		return "Geocoding error: " + oracle.Status
	default:
		return "Address resolution failed. Please try again."
	}
}

const helpLine = "To change your zip code text #. To book a ride, text your pickup address, comma, then destination address."

// Out-of-band notices, always delivered by SMS.

func profileCreatedNotice(p profile.Profile) string {
	return fmt.Sprintf("Account: %s, Gender: %s, Zipcode: %s. Profile created successfully! %s", p.Token, p.Gender, p.Zip, helpLine)
}

func zipUpdatedNotice(p profile.Profile) string {
	return fmt.Sprintf("Account: %s, Gender: %s, Zipcode: %s. Profile updated successfully! %s", p.Token, p.Gender, p.Zip, helpLine)
}

func rideConfirmedNotice(r ride.Ride) string {
	return fmt.Sprintf("Ride confirmed!\nPickup: %s\nDestination: %s\nEstimated travel time: %s", r.Pickup, r.Destination, r.TravelTime)
}

type textMessages struct {
	welcome             string
	invalidToken        string
	askGender           string
	invalidGender       string
	askZip              string
	invalidZip          string
	profileCreated      string // token, gender, zip, booking format
	bookingFormat       string
	pickupError         string
	destinationError    string
	travelTimeError     string
	confirm             string // pickup, destination, travel time
	invalidConfirmation string
	rideConfirmed       string // pickup, destination, travel time
	askNewPickup        string
	askNewDestination   string
	askNewZip           string
	zipUpdated          string // token, gender, zip, booking format
	suggestedZipApplied string
	retriesExhausted    string
}

var smsMessages = textMessages{
	welcome:       "Welcome to RideSafe Local!\nLet's create your profile.\nPlease enter a 4-digit profile name.",
	invalidToken:  "Please enter exactly 4 digits for your profile name.",
	askGender:     "Please enter your gender 1 for Male, 2 for Female:",
	invalidGender: "Invalid selection. Enter 1 for Male or 2 for Female:",
	askZip:        "Please enter your zip code:",
	invalidZip:    "Please enter a valid 5-digit zip code.",
	profileCreated: "Account: %s, gender %s, zip code %s\n\n" +
		"Profile created successfully! " + helpLine + "\n\n" +
		"Let's book a ride now!\n%s",
	bookingFormat: "Send pickup address, comma, destination address\n" +
		"Example: 123 Main St, 456 Oak Rd\n" +
		"Please provide both addresses in one of these formats:\n\n" +
		"1.address1 , address2\n" +
		"2.address1 ## address2\n" +
		"3.address1 (on first line)\n" +
		"  address2 (on second line)\n\n" +
		"To change your zip code text #",
	pickupError:      "Pickup address error: %s",
	destinationError: "Destination address error: %s",
	travelTimeError:  travelTimeErrorText,
	confirm: "Ride Details:\n\n" +
		"From: %s\n" +
		"To: %s\n" +
		"Estimated time: %s\n\n" +
		"Please confirm:\n" +
		"1.Confirm booking\n" +
		"2.Change pickup address\n" +
		"3.Change destination address\n\n" +
		helpLine,
	invalidConfirmation: "Invalid option\n\n" +
		"1. Confirm booking\n" +
		"2. Change pickup address\n" +
		"3. Change destination address",
	rideConfirmed:       "Ride confirmed!\n\nPickup: %s\nDestination: %s\nTravel Time: %s",
	askNewPickup:        "Please enter the new pickup address:",
	askNewDestination:   "Please enter the new destination address:",
	askNewZip:           "Enter your new zip code",
	zipUpdated:          "ZIP code updated successfully!\n\nAccount %s, gender %s, zip code %s\n\n%s",
	suggestedZipApplied: "Zip code updated to %s",
	retriesExhausted:    "Too many invalid attempts. Your request has been reset, text us again to start over.",
}

var whatsappMessages = textMessages{
	welcome:       "👋 Welcome to Safe Drive !\n\nLet's create your profile 📝\nPlease enter a 4-digit profile name",
	invalidToken:  "⚠️ Please enter exactly 4 digits for your profile name.",
	askGender:     "Please enter your gender:\n1️⃣ for Male\n2️⃣ for Female",
	invalidGender: "❌ Invalid selection. Enter 1 for Male or 2 for Female",
	askZip:        "Please enter your 5-digit zip code 📍",
	invalidZip:    "⚠️ Please enter a valid 5-digit zip code",
	profileCreated: "Account: %s, gender %s, zip code %s\n" +
		"✅ Profile created successfully! " + helpLine + "\n\n" +
		"🚗 Let's book a ride now!\n%s",
	bookingFormat: "Send pickup address, comma, destination address\n" +
		"Example: 123 Main St, 456 Oak Rd\n" +
		"⚠️ Please provide both addresses in one of these formats:\n\n" +
		"1️⃣ address1 , address2\n" +
		"2️⃣ address1 ## address2\n" +
		"3️⃣ address1 (on first line)\n" +
		"   address2 (on second line)\n\n" +
		"⚠️To change your zip code text #",
	pickupError:      "❌ Pickup address error: %s",
	destinationError: "❌ Destination address error: %s",
	travelTimeError:  "❌ " + travelTimeErrorText,
	confirm: "🚗 Ride Details:\n\n" +
		"📍 From: %s\n" +
		"🎯 To: %s\n" +
		"⏱️ Estimated time: %s\n\n" +
		"Please confirm:\n" +
		"1️⃣ Confirm booking\n" +
		"2️⃣ Change pickup address\n" +
		"3️⃣ Change destination address\n\n" +
		"⚠️" + helpLine,
	invalidConfirmation: "❌ Invalid option\n\n" +
		"1️⃣ Confirm booking\n" +
		"2️⃣ Change pickup address\n" +
		"3️⃣ Change destination address\n\n" +
		"⚠️" + helpLine,
	rideConfirmed:       "✅ Ride confirmed!\n\n📍 Pickup: %s\n🎯 Destination: %s\n⏱ Travel Time: %s",
	askNewPickup:        "📍 Please enter the new pickup address:",
	askNewDestination:   "📍 Please enter the new destination address:",
	askNewZip:           "📍 Enter your new zip code",
	zipUpdated:          "✅ ZIP code updated successfully!\n\nAccount %s, gender %s, zip code %s\n🚗 Ready to book a ride!\n%s",
	suggestedZipApplied: "✅ Zip code updated to %s",
	retriesExhausted:    "⚠️ Too many invalid attempts. Your request has been reset, send us a message to start over.",
}

// textScript serves both SMS and WhatsApp; only the wording differs.
type textScript struct {
	m textMessages
}

func (s textScript) text(msg string) Reply { return reply(say(msg)) }

func (s textScript) Welcome() Reply       { return s.text(s.m.welcome) }
func (s textScript) InvalidToken() Reply  { return s.text(s.m.invalidToken) }
func (s textScript) AskGender() Reply     { return s.text(s.m.askGender) }
func (s textScript) InvalidGender() Reply { return s.text(s.m.invalidGender) }
func (s textScript) AskZip() Reply        { return s.text(s.m.askZip) }
func (s textScript) InvalidZip() Reply    { return s.text(s.m.invalidZip) }

func (s textScript) ProfileCreated(p profile.Profile) Reply {
	return s.text(fmt.Sprintf(s.m.profileCreated, p.Token, strings.ToLower(string(p.Gender)), p.Zip, s.m.bookingFormat))
}

// Text channels have no menu; booking starts from the format instructions.
func (s textScript) Menu() Reply           { return s.BookingFormat() }
func (s textScript) InvalidMenu() Reply    { return s.BookingFormat() }
func (s textScript) BookingFormat() Reply  { return s.text(s.m.bookingFormat) }
func (s textScript) AskPickup() Reply      { return s.BookingFormat() }
func (s textScript) PickupReceived() Reply { return s.BookingFormat() }
func (s textScript) AskDestination() Reply { return s.BookingFormat() }

func (s textScript) AddressError(leg Leg, msg string) Reply {
	if leg == LegDestination {
		return s.text(fmt.Sprintf(s.m.destinationError, msg))
	}
	return s.text(fmt.Sprintf(s.m.pickupError, msg))
}

func (s textScript) TravelTimeError() Reply { return s.text(s.m.travelTimeError) }

func (s textScript) Confirm(pickup, destination, travelTime string) Reply {
	return s.text(fmt.Sprintf(s.m.confirm, pickup, destination, travelTime))
}

func (s textScript) InvalidConfirmation() Reply { return s.text(s.m.invalidConfirmation) }

func (s textScript) RideConfirmed(r ride.Ride) Reply {
	return s.text(fmt.Sprintf(s.m.rideConfirmed, r.Pickup, r.Destination, r.TravelTime))
}

func (s textScript) AskNewAddress(leg Leg) Reply {
	if leg == LegDestination {
		return s.text(s.m.askNewDestination)
	}
	return s.text(s.m.askNewPickup)
}

func (s textScript) AskNewZip() Reply { return s.text(s.m.askNewZip) }

func (s textScript) ZipUpdated(p profile.Profile) Reply {
	return s.text(fmt.Sprintf(s.m.zipUpdated, p.Token, strings.ToLower(string(p.Gender)), p.Zip, s.m.bookingFormat))
}

func (s textScript) SuggestedZipApplied(zip string) Reply {
	return s.text(fmt.Sprintf(s.m.suggestedZipApplied, zip))
}

func (s textScript) RetriesExhausted() Reply { return s.text(s.m.retriesExhausted) }

const (
	voiceAskPickup       = "Please say your pickup address, then press pound."
	voiceAskDestination  = "Please say your destination address, then press pound."
	voiceMenu            = "Press 1 to book a ride, press 2 to update your ZIP code."
	voiceConfirmOptions  = "To confirm addresses press 1, to change pickup address press 2, to change destination press 3."
	voiceAskAddressAgain = "Please say the address again, then press pound."
)

type voiceScript struct{}

func (voiceScript) Welcome() Reply {
	return reply(
		say("Welcome to RideSafe Local! Let's create your profile."),
		askDigits(4, "Please enter a 4-digit profile name using your keypad."),
	)
}

func (voiceScript) InvalidToken() Reply {
	return reply(askDigits(4, "Please enter exactly 4 digits for your profile name."))
}

func (voiceScript) AskGender() Reply {
	return reply(askDigits(1, "Press 1 for Male, press 2 for Female."))
}

func (voiceScript) InvalidGender() Reply {
	return reply(askDigits(1, "Invalid selection. Press 1 for Male or 2 for Female."))
}

func (voiceScript) AskZip() Reply { return reply(askDigits(5, "Please enter your 5-digit zip code.")) }

func (voiceScript) InvalidZip() Reply {
	return reply(askDigits(5, "Please enter a valid 5-digit zip code."))
}

func (voiceScript) ProfileCreated(profile.Profile) Reply {
	return reply(
		say("Profile created successfully! You will receive a text message with your account details. Let's book your ride."),
		askSpeech(voiceAskPickup),
	)
}

func (voiceScript) Menu() Reply {
	return reply(say("Welcome to RideSafe Local!"), askDigits(1, voiceMenu))
}

func (voiceScript) InvalidMenu() Reply { return reply(askDigits(1, "Invalid option. "+voiceMenu)) }

func (v voiceScript) BookingFormat() Reply { return v.AskPickup() }

func (voiceScript) AskPickup() Reply { return reply(askSpeech(voiceAskPickup)) }

func (voiceScript) PickupReceived() Reply {
	return reply(say("Pickup address received."), askSpeech("Now, please say your destination address, then press pound."))
}

func (voiceScript) AskDestination() Reply { return reply(askSpeech(voiceAskDestination)) }

func (voiceScript) AddressError(leg Leg, msg string) Reply {
	return reply(say(msg), askSpeech(fmt.Sprintf("Please say your %s address again, then press pound.", leg)))
}

func (voiceScript) TravelTimeError() Reply {
	return reply(say(travelTimeErrorText), askSpeech(voiceAskAddressAgain))
}

func (voiceScript) Confirm(pickup, destination, travelTime string) Reply {
	return reply(
		say(fmt.Sprintf("From %s to %s. Estimated travel time: %s.", pickup, destination, travelTime)),
		askDigits(1, voiceConfirmOptions),
	)
}

func (voiceScript) InvalidConfirmation() Reply {
	return reply(askDigits(1, "Invalid option. "+voiceConfirmOptions))
}

func (voiceScript) RideConfirmed(ride.Ride) Reply {
	return reply(say("Ride confirmed! You will receive a confirmation SMS. Thank you for using our service."))
}

func (voiceScript) AskNewAddress(leg Leg) Reply {
	return reply(askSpeech(fmt.Sprintf("Please say your new %s address, then press pound.", leg)))
}

func (voiceScript) AskNewZip() Reply {
	return reply(askDigits(5, "Please enter your new 5-digit ZIP code."))
}

func (voiceScript) ZipUpdated(profile.Profile) Reply {
	return reply(say("ZIP code updated successfully! Let's book your ride."), askSpeech(voiceAskPickup))
}

func (voiceScript) SuggestedZipApplied(zip string) Reply {
	return reply(say(fmt.Sprintf("Zip code updated to %s. Goodbye.", strings.Join(strings.Split(zip, ""), " "))))
}

func (voiceScript) RetriesExhausted() Reply {
	return reply(say("Too many invalid attempts. Please call again to start over. Goodbye."))
}
