package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"ridesafe/internal/types"
)

// messageAPI is the slice of the Twilio REST API used here.
type messageAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
	ListMessage(params *openapi.ListMessageParams) ([]openapi.ApiV2010Message, error)
	DeleteMessage(sid string, params *openapi.DeleteMessageParams) error
}

// TwilioSender sends SMS through the Twilio REST API and manages the message log.
type TwilioSender struct {
	api  messageAPI
	from string
}

func NewTwilioSender(accountSID, authToken, from string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || from == "" {
		return nil, errors.New("twilio sender needs account sid, auth token and from number")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{api: client.Api, from: from}, nil
}

func (s *TwilioSender) Send(ctx context.Context, to types.Phone, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to.String())
	params.SetFrom(s.from)
	params.SetBody(body)

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send to %s: %w", to, err)
	}
	if msg != nil && msg.ErrorMessage != nil && *msg.ErrorMessage != "" {
		return fmt.Errorf("twilio send to %s: %s", to, *msg.ErrorMessage)
	}
	return nil
}

// PurgeResult summarises a message-log purge.
type PurgeResult struct {
	Matched int
	Deleted int
	Failed  int
}

// PurgeMessages deletes every logged message sent after the given time. With
// dryRun set the messages are only counted.
func (s *TwilioSender) PurgeMessages(ctx context.Context, after time.Time, dryRun bool) (PurgeResult, error) {
	params := &openapi.ListMessageParams{}
	params.SetDateSentAfter(after)

	msgs, err := s.api.ListMessage(params)
	if err != nil {
		return PurgeResult{}, fmt.Errorf("list messages: %w", err)
	}

	var res PurgeResult
	var errs []error
	for _, m := range msgs {
		if m.Sid == nil {
			continue
		}
		res.Matched++
		if dryRun {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.api.DeleteMessage(*m.Sid, &openapi.DeleteMessageParams{}); err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("delete %s: %w", *m.Sid, err))
			continue
		}
		res.Deleted++
	}
	return res, errors.Join(errs...)
}
