package handlers

import (
	"github.com/subguard/subguard/internal/app/service/execution"
	"github.com/subguard/subguard/internal/app/service/optimizer"
	"github.com/subguard/subguard/internal/app/service/statistics"
	"github.com/subguard/subguard/internal/models"
	"github.com/subguard/subguard/pkg/response"
)

// Envelope aliases for swagger documentation only; handlers build responses
// through response.OKT / response.ErrorT.

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    any                      `json:"data"`
}

type RespUser struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.User              `json:"data"`
}

type RespLogin struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    loginResponse            `json:"data"`
}

type RespSubscription struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Subscription      `json:"data"`
}

type RespSubscriptionList struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.Subscription    `json:"data"`
}

type RespAnalysis struct {
	Code    response.APIResponseCode       `json:"code"`
	Message string                         `json:"message"`
	Data    optimizer.SubscriptionAnalysis `json:"data"`
}

type RespOptimizationList struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.Optimization    `json:"data"`
}

type RespExecution struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    execution.Result         `json:"data"`
}

type RespResults struct {
	Code    response.APIResponseCode       `json:"code"`
	Message string                         `json:"message"`
	Data    statistics.OptimizationResults `json:"data"`
}

type RespDashboard struct {
	Code    response.APIResponseCode    `json:"code"`
	Message string                      `json:"message"`
	Data    statistics.DashboardSummary `json:"data"`
}

type RespNegotiation struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Negotiation       `json:"data"`
}

type RespNegotiationList struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.Negotiation     `json:"data"`
}

type RespActivityList struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.Activity        `json:"data"`
}
