package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/app/responses"
	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/internal/cleaner"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RulesController edits the suffix and external keyword tables.
type RulesController struct {
	rulesService *services.RulesService
	logger       *zap.Logger
}

func NewRulesController(rulesService *services.RulesService, logger *zap.Logger) *RulesController {
	return &RulesController{rulesService: rulesService, logger: logger}
}

func (rc *RulesController) GetRules(c *gin.Context) {
	rules, version := rc.rulesService.Current()
	c.JSON(http.StatusOK, responses.RulesResponse{Version: version, Rules: rules.Doc()})
}

func (rc *RulesController) AddSuffix(c *gin.Context) {
	var req requests.SuffixRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: "+err.Error())
		return
	}
	rules, warnings, err := rc.rulesService.AddSuffix(c.Request.Context(), req.Name, req.Preferred)
	rc.respond(c, rules, warnings, err)
}

func (rc *RulesController) RemoveSuffix(c *gin.Context) {
	rules, err := rc.rulesService.RemoveSuffix(c.Request.Context(), c.Param("name"))
	rc.respond(c, rules, nil, err)
}

func (rc *RulesController) AddExternal(c *gin.Context) {
	var req requests.ExternalRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: "+err.Error())
		return
	}
	rules, warnings, err := rc.rulesService.AddExternal(c.Request.Context(), req.Word)
	rc.respond(c, rules, warnings, err)
}

func (rc *RulesController) RemoveExternal(c *gin.Context) {
	rules, err := rc.rulesService.RemoveExternal(c.Request.Context(), c.Param("word"))
	rc.respond(c, rules, nil, err)
}

// ReplaceRules installs a whole rule set.
func (rc *RulesController) ReplaceRules(c *gin.Context) {
	var req requests.ReplaceRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: "+err.Error())
		return
	}
	rules, err := rc.rulesService.Replace(c.Request.Context(), req.Rules, req.Comment)
	rc.respond(c, rules, nil, err)
}

func (rc *RulesController) History(c *gin.Context) {
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}
	docs, err := rc.rulesService.History(c.Request.Context(), limit)
	if err != nil {
		rc.logger.Error("Failed to list rule sets", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "RULE_ERROR", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, "OK", docs)
}

func (rc *RulesController) respond(c *gin.Context, rules *cleaner.RuleSet, warnings []string, err error) {
	switch {
	case errors.Is(err, cleaner.ErrRuleNotFound):
		respondError(c, http.StatusNotFound, "RULE_NOT_FOUND", err.Error())
	case errors.Is(err, cleaner.ErrRuleExists):
		respondError(c, http.StatusConflict, "RULE_EXISTS", err.Error())
	case errors.Is(err, cleaner.ErrInvalidRule):
		respondError(c, http.StatusBadRequest, "RULE_ERROR", err.Error())
	case err != nil:
		rc.logger.Error("Rule edit failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "RULE_ERROR", err.Error())
	default:
		c.JSON(http.StatusOK, responses.RulesResponse{
			Version:  rules.Version(),
			Rules:    rules.Doc(),
			Warnings: warnings,
		})
	}
}
