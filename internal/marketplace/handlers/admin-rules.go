package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go-marketplace/internal/common/clientprotocol"
	"go-marketplace/internal/marketplace/access"
	"go-marketplace/internal/marketplace/service"
	"go-marketplace/pkg/logging"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RulesService interface {
	ListRules(ctx context.Context, loc string) ([]access.Rule, error)
	UpsertRule(ctx context.Context, input service.RuleInput) (access.Rule, error)
	UpdateRule(ctx context.Context, id uuid.UUID, isEnabled bool, cfg access.Config) (access.Rule, error)
}

type RulesListHandler struct {
	service RulesService
	logger  *logging.ZapLogger
}

func NewRulesListHandler(service RulesService, logger *logging.ZapLogger) *RulesListHandler {
	return &RulesListHandler{
		service: service,
		logger:  logger,
	}
}

func (h *RulesListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.ListRules(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	res := make([]clientprotocol.Rule, 0, len(rules))
	for _, rule := range rules {
		dto, err := ruleDTO(rule)
		if err != nil {
			writeServiceError(r.Context(), w, h.logger, err)
			return
		}
		res = append(res, dto)
	}
	writeResponse(r.Context(), w, h.logger, http.StatusOK, res)
}

type RuleUpsertHandler struct {
	service RulesService
	logger  *logging.ZapLogger
}

func NewRuleUpsertHandler(service RulesService, logger *logging.ZapLogger) *RuleUpsertHandler {
	return &RuleUpsertHandler{
		service: service,
		logger:  logger,
	}
}

func (h *RuleUpsertHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	input, err := decodeJSON[clientprotocol.RuleInput](r.Body)
	if err != nil {
		h.logger.DebugCtx(r.Context(), "error decoding input", zap.Error(err))
		WriteError(r.Context(), w, h.logger, http.StatusBadRequest, "malformed request body")
		return
	}
	cfg, err := access.UnmarshalConfig(input.Configuration)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, fmt.Errorf("%w: %w", service.ErrInvalidInput, err))
		return
	}

	rule, err := h.service.UpsertRule(r.Context(), service.RuleInput{
		Location:      input.Location,
		FeatureName:   input.FeatureName,
		IsEnabled:     input.IsEnabled,
		Configuration: cfg,
	})
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeRule(r.Context(), w, h.logger, rule)
}

type RuleUpdateHandler struct {
	service RulesService
	logger  *logging.ZapLogger
}

func NewRuleUpdateHandler(service RulesService, logger *logging.ZapLogger) *RuleUpdateHandler {
	return &RuleUpdateHandler{
		service: service,
		logger:  logger,
	}
}

func (h *RuleUpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer closeBody(r.Context(), r.Body, h.logger)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(r.Context(), w, h.logger, http.StatusNotFound, "unknown rule id")
		return
	}
	input, err := decodeJSON[clientprotocol.RuleUpdate](r.Body)
	if err != nil || input.IsEnabled == nil {
		h.logger.DebugCtx(r.Context(), "error decoding input", zap.Error(err))
		WriteError(r.Context(), w, h.logger, http.StatusBadRequest, "malformed request body")
		return
	}
	cfg, err := access.UnmarshalConfig(input.Configuration)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, fmt.Errorf("%w: %w", service.ErrInvalidInput, err))
		return
	}

	rule, err := h.service.UpdateRule(r.Context(), id, *input.IsEnabled, cfg)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeRule(r.Context(), w, h.logger, rule)
}

func writeRule(ctx context.Context, w http.ResponseWriter, logger *logging.ZapLogger, rule access.Rule) {
	dto, err := ruleDTO(rule)
	if err != nil {
		writeServiceError(ctx, w, logger, err)
		return
	}
	writeResponse(ctx, w, logger, http.StatusOK, dto)
}

func ruleDTO(rule access.Rule) (clientprotocol.Rule, error) {
	cfg, err := access.MarshalConfig(rule.Configuration)
	if err != nil {
		return clientprotocol.Rule{}, err //nolint:wrapcheck // unnecessary
	}
	return clientprotocol.Rule{
		ID:            rule.ID.String(),
		Location:      string(rule.Location),
		FeatureName:   rule.FeatureName,
		IsEnabled:     rule.IsEnabled,
		Configuration: json.RawMessage(cfg),
		UpdatedAt:     rule.UpdatedAt.UTC(),
	}, nil
}
