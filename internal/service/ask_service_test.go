package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"ask-io/internal/domain"
	"ask-io/internal/llm"
)

type askFixture struct {
	svc           *AskService
	accounts      *memCreditRepo
	usage         *memUsageRepo
	history       *memChatHistory
	notifications *memNotificationRepo
	profiles      *memProfileRepo
	sender        *recordingSender
	llm           *llm.MockClient
}

func newAskFixture(atomic bool) *askFixture {
	f := &askFixture{
		accounts:      newMemCreditRepo(),
		usage:         &memUsageRepo{},
		history:       &memChatHistory{},
		notifications: &memNotificationRepo{},
		profiles:      newMemProfileRepo(),
		sender:        &recordingSender{},
		llm:           &llm.MockClient{Response: "respuesta"},
	}
	credits := NewCreditService(zap.NewNop(), f.accounts, f.usage, 100)
	notes := NewNotificationService(zap.NewNop(), f.notifications, f.profiles, f.sender)
	f.svc = NewAskService(zap.NewNop(), credits, f.llm, f.history, notes, f.profiles, f.sender, AskOptions{
		LowCreditThreshold: 10,
		AtomicCharge:       atomic,
		AppURL:             "https://ask.io",
	})
	f.profiles.byID["u1"] = domain.Profile{ID: "u1", Email: "a@b.com", Name: "Ana"}
	return f
}

func TestAsk_TextQueryDebitsAndRecords(t *testing.T) {
	for _, atomic := range []bool{false, true} {
		f := newAskFixture(atomic)

		res, err := f.svc.Ask(context.Background(), AskInput{UserID: "u1", Operation: domain.OperationTextQuery, Prompt: "que es go?"})
		if err != nil {
			t.Fatalf("atomic=%v Ask: %v", atomic, err)
		}
		if res.Answer != "respuesta" || res.CreditsUsed != 1 || res.Remaining != 99 {
			t.Fatalf("atomic=%v unexpected result: %+v", atomic, res)
		}
		if len(f.usage.records) != 1 || f.usage.records[0].CreditsUsed != 1 {
			t.Fatalf("atomic=%v expected one usage record, got %+v", atomic, f.usage.records)
		}
		if len(f.history.msgs) != 2 || !f.history.msgs[0].IsUser || f.history.msgs[1].IsUser {
			t.Fatalf("atomic=%v expected user+assistant history, got %+v", atomic, f.history.msgs)
		}
		if p := f.llm.Prompts(); len(p) != 1 || p[0] != "que es go?" {
			t.Fatalf("atomic=%v unexpected prompt: %v", atomic, p)
		}
	}
}

func TestAsk_InsufficientCredits(t *testing.T) {
	f := newAskFixture(false)
	f.accounts.accounts["u1"] = domain.CreditAccount{UserID: "u1", TotalCredits: 100, UsedCredits: 97}

	_, err := f.svc.Ask(context.Background(), AskInput{
		UserID:     "u1",
		Operation:  domain.OperationFileAnalysis,
		Prompt:     "resume",
		Attachment: &domain.Attachment{Type: domain.AttachmentPDF, URL: "https://files/x.pdf", Name: "x.pdf"},
	})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if len(f.llm.Prompts()) != 0 {
		t.Fatalf("llm must not be called when denied")
	}
	if f.accounts.accounts["u1"].UsedCredits != 97 {
		t.Fatalf("balance must be unchanged")
	}
}

func TestAsk_GenerationFailureDoesNotDebit(t *testing.T) {
	f := newAskFixture(false)
	f.llm.Err = errors.New("quota")

	_, err := f.svc.Ask(context.Background(), AskInput{UserID: "u1", Operation: domain.OperationTextQuery, Prompt: "hola"})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	if f.accounts.accounts["u1"].UsedCredits != 0 || len(f.usage.records) != 0 {
		t.Fatalf("nothing should be debited on generation failure")
	}
}

func TestAsk_Validation(t *testing.T) {
	f := newAskFixture(false)
	cases := []AskInput{
		{UserID: "u1", Operation: domain.OperationTextQuery, Prompt: "  "},
		{UserID: "", Operation: domain.OperationTextQuery, Prompt: "x"},
		{UserID: "u1", Operation: "VIDEO", Prompt: "x"},
		{UserID: "u1", Operation: domain.OperationFileAnalysis, Prompt: "x"},
		{UserID: "u1", Operation: domain.OperationLinkAnalysis, Prompt: "x", Attachment: &domain.Attachment{Type: domain.AttachmentPDF, URL: "u"}},
	}
	for i, in := range cases {
		if _, err := f.svc.Ask(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestAsk_LinkPromptIncludesURL(t *testing.T) {
	f := newAskFixture(false)
	_, err := f.svc.Ask(context.Background(), AskInput{
		UserID:     "u1",
		Operation:  domain.OperationLinkAnalysis,
		Prompt:     "que dice?",
		Attachment: &domain.Attachment{Type: domain.AttachmentLink, URL: "https://go.dev"},
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	p := f.llm.Prompts()
	if len(p) != 1 || !strings.Contains(p[0], "https://go.dev") || !strings.Contains(p[0], "que dice?") {
		t.Fatalf("unexpected prompt: %v", p)
	}
	if f.accounts.accounts["u1"].UsedCredits != 3 {
		t.Fatalf("expected link cost 3, got %d", f.accounts.accounts["u1"].UsedCredits)
	}
}

func TestAsk_LowCreditWarningOnThresholdCrossing(t *testing.T) {
	f := newAskFixture(false)
	f.accounts.accounts["u1"] = domain.CreditAccount{UserID: "u1", TotalCredits: 100, UsedCredits: 89}
	ctx := context.Background()

	res, err := f.svc.Ask(ctx, AskInput{UserID: "u1", Operation: domain.OperationTextQuery, Prompt: "hola"})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if res.Remaining != 10 {
		t.Fatalf("expected remaining 10, got %d", res.Remaining)
	}
	if len(f.notifications.items) != 1 || f.notifications.items[0].Type != domain.NotificationWarning {
		t.Fatalf("expected one warning notification, got %+v", f.notifications.items)
	}
	msgs := f.sender.messages()
	if len(msgs) != 1 || msgs[0].Subject != "Your Ask.io Credits Are Running Low" {
		t.Fatalf("expected low credit email, got %+v", msgs)
	}

	if _, err := f.svc.Ask(ctx, AskInput{UserID: "u1", Operation: domain.OperationTextQuery, Prompt: "otra"}); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if len(f.notifications.items) != 1 {
		t.Fatalf("warning must only fire when crossing the threshold")
	}
}

func TestAsk_HistoryFailureIsBestEffort(t *testing.T) {
	f := newAskFixture(false)
	f.history.saveErr = errors.New("mongo down")

	if _, err := f.svc.Ask(context.Background(), AskInput{UserID: "u1", Operation: domain.OperationTextQuery, Prompt: "hola"}); err != nil {
		t.Fatalf("expected success despite history failure, got %v", err)
	}
}

func TestAskHistory(t *testing.T) {
	f := newAskFixture(false)
	ctx := context.Background()
	if _, err := f.svc.Ask(ctx, AskInput{UserID: "u1", Operation: domain.OperationTextQuery, Prompt: "primera"}); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	msgs, err := f.svc.History(ctx, "u1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "primera" || msgs[1].Content != "respuesta" {
		t.Fatalf("unexpected history: %+v", msgs)
	}
	if _, err := f.svc.History(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
