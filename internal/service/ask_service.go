package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ask-io/internal/domain"
	"ask-io/internal/email"
	"ask-io/internal/llm"
	"ask-io/internal/repository"
)

const (
	defaultLowCreditThreshold = 10
	chatHistoryLimit          = 100
	usageDescriptionMax       = 100
)

// AskService responde preguntas cobrando creditos por operacion.
type AskService struct {
	logger        *zap.Logger
	credits       *CreditService
	llm           llm.LLMClient
	history       repository.ChatHistoryRepository
	notifications *NotificationService
	profiles      repository.ProfileRepository
	sender        email.Sender
	appURL        string
	lowThreshold  int
	atomic        bool
	now           func() time.Time
}

type AskInput struct {
	UserID     string
	Operation  domain.OperationKind
	Prompt     string
	Attachment *domain.Attachment
}

type AskResult struct {
	Answer      string `json:"answer"`
	CreditsUsed int    `json:"credits_used"`
	Remaining   int    `json:"remaining"`
}

// AskOptions agrupa los parametros opcionales del servicio.
type AskOptions struct {
	LowCreditThreshold int
	AtomicCharge       bool
	AppURL             string
}

func NewAskService(
	logger *zap.Logger,
	credits *CreditService,
	client llm.LLMClient,
	history repository.ChatHistoryRepository,
	notifications *NotificationService,
	profiles repository.ProfileRepository,
	sender email.Sender,
	opts AskOptions,
) *AskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if history == nil {
		history = repository.NewDisabledChatHistory()
	}
	threshold := opts.LowCreditThreshold
	if threshold <= 0 {
		threshold = defaultLowCreditThreshold
	}
	return &AskService{
		logger:        logger,
		credits:       credits,
		llm:           client,
		history:       history,
		notifications: notifications,
		profiles:      profiles,
		sender:        sender,
		appURL:        opts.AppURL,
		lowThreshold:  threshold,
		atomic:        opts.AtomicCharge,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *AskService) Ask(ctx context.Context, in AskInput) (AskResult, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.Prompt = strings.TrimSpace(in.Prompt)
	if err := validateAsk(in); err != nil {
		return AskResult{}, err
	}

	auth, err := s.credits.Authorize(ctx, in.UserID, in.Operation)
	if err != nil {
		return AskResult{}, err
	}
	if !auth.Allowed {
		return AskResult{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCredits, auth.Cost, auth.Remaining)
	}

	answer, err := s.llm.Generate(ctx, buildPrompt(in))
	if err != nil {
		s.logger.Warn("llm generate failed", zap.Error(err), zap.String("user_id", in.UserID))
		return AskResult{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	account, err := s.charge(ctx, in)
	if err != nil {
		return AskResult{}, err
	}

	s.saveHistory(ctx, in, answer)

	remaining := account.Remaining()
	if auth.Remaining > s.lowThreshold && remaining <= s.lowThreshold {
		s.warnLowCredits(ctx, in.UserID, remaining)
	}

	return AskResult{
		Answer:      answer,
		CreditsUsed: auth.Cost,
		Remaining:   remaining,
	}, nil
}

// History devuelve el historial de chat del usuario, mas antiguo primero.
func (s *AskService) History(ctx context.Context, userID string) ([]domain.ChatMessage, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	msgs, err := s.history.ListByUser(ctx, userID, chatHistoryLimit)
	if err != nil {
		return nil, storageErr(err)
	}
	return msgs, nil
}

func (s *AskService) charge(ctx context.Context, in AskInput) (domain.CreditAccount, error) {
	description := usageDescription(in.Prompt)
	if s.atomic {
		account, ok, err := s.credits.Charge(ctx, in.UserID, in.Operation, description)
		if err != nil {
			return domain.CreditAccount{}, err
		}
		if !ok {
			return domain.CreditAccount{}, ErrInsufficientCredits
		}
		return account, nil
	}

	account, err := s.credits.Debit(ctx, in.UserID, in.Operation)
	if err != nil {
		return domain.CreditAccount{}, err
	}
	if _, err := s.credits.LogUsage(ctx, in.UserID, in.Operation, description); err != nil {
		return domain.CreditAccount{}, err
	}
	return account, nil
}

func (s *AskService) saveHistory(ctx context.Context, in AskInput, answer string) {
	now := s.now()
	turns := []domain.ChatMessage{
		{UserID: in.UserID, Content: in.Prompt, IsUser: true, Attachment: in.Attachment, CreatedAt: now},
		{UserID: in.UserID, Content: answer, IsUser: false, CreatedAt: now.Add(time.Millisecond)},
	}
	for _, msg := range turns {
		if _, err := s.history.Save(ctx, msg); err != nil {
			s.logger.Warn("save chat history failed", zap.Error(err), zap.String("user_id", in.UserID))
			return
		}
	}
}

func (s *AskService) warnLowCredits(ctx context.Context, userID string, remaining int) {
	if s.notifications != nil {
		_, err := s.notifications.Create(ctx, NotificationInput{
			UserID:  userID,
			Title:   "Low credits",
			Message: fmt.Sprintf("You have %d credits remaining.", remaining),
			Type:    domain.NotificationWarning,
			Link:    strings.TrimRight(s.appURL, "/") + "/dashboard/billing",
		})
		if err != nil {
			s.logger.Warn("create low credit notification failed", zap.Error(err), zap.String("user_id", userID))
		}
	}
	if s.sender == nil || s.profiles == nil {
		return
	}
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("low credit email skipped", zap.Error(err), zap.String("user_id", userID))
		return
	}
	if err := s.sender.Send(ctx, email.LowCredits(profile.Name, remaining, s.appURL).To(profile.Email)); err != nil {
		s.logger.Warn("send low credit email failed", zap.Error(err), zap.String("user_id", userID))
	}
}

func validateAsk(in AskInput) error {
	if in.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if in.Prompt == "" {
		return fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}
	if !in.Operation.Valid() {
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, in.Operation)
	}
	att := in.Attachment
	switch in.Operation {
	case domain.OperationFileAnalysis:
		if att == nil || strings.TrimSpace(att.URL) == "" || (att.Type != domain.AttachmentImage && att.Type != domain.AttachmentPDF) {
			return fmt.Errorf("%w: file analysis requires an image or pdf attachment", ErrInvalidInput)
		}
	case domain.OperationLinkAnalysis:
		if att == nil || strings.TrimSpace(att.URL) == "" || att.Type != domain.AttachmentLink {
			return fmt.Errorf("%w: link analysis requires a link attachment", ErrInvalidInput)
		}
	}
	return nil
}

func buildPrompt(in AskInput) string {
	switch in.Operation {
	case domain.OperationFileAnalysis:
		name := in.Attachment.Name
		if name == "" {
			name = "attachment"
		}
		return fmt.Sprintf("Analyze this %s file named %q, available at %s.\n\n%s", in.Attachment.Type, name, in.Attachment.URL, in.Prompt)
	case domain.OperationLinkAnalysis:
		return fmt.Sprintf("Analyze the content at this link: %s\n\n%s", in.Attachment.URL, in.Prompt)
	default:
		return in.Prompt
	}
}

func usageDescription(prompt string) string {
	r := []rune(prompt)
	if len(r) <= usageDescriptionMax {
		return prompt
	}
	return string(r[:usageDescriptionMax]) + "..."
}
