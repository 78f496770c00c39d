// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// It ensures that every response (Success or Error) across the entire application
// follows a strict, predictable JSON envelope structure:
//
//	{"message": "Done", "info": "Login Succeeded", "data": {...}}
//	{"message": "Invalid OTP code", "error": {"code": "INVALID_OTP"}}
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/secretbox/internal/platform/apperr"
	"github.com/taibuivan/secretbox/internal/platform/ctxutil"
)

// DefaultMessage is the success message used when a handler does not set one.
const DefaultMessage = "Done"

// Success describes the body of a successful response.
type Success struct {
	Status  int
	Message string
	Info    string
	Data    interface{}
}

// SuccessEnvelope is the JSON envelope for successful responses.
type SuccessEnvelope struct {
	Message string      `json:"message"`
	Info    string      `json:"info,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the machine-readable part of an [ErrorEnvelope].
type ErrorBody struct {
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// ErrorEnvelope is the JSON envelope for error responses.
type ErrorEnvelope struct {
	Message string    `json:"message"`
	Error   ErrorBody `json:"error"`
}

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// Write renders a [Success] with defaults for the status (200) and message.
func Write(writer http.ResponseWriter, success Success) {
	if success.Status == 0 {
		success.Status = http.StatusOK
	}
	if success.Message == "" {
		success.Message = DefaultMessage
	}
	JSON(writer, success.Status, SuccessEnvelope{
		Message: success.Message,
		Info:    success.Info,
		Data:    success.Data,
	})
}

// OK writes a 200 OK response with data wrapped in the standard success envelope.
func OK(writer http.ResponseWriter, data interface{}) {
	Write(writer, Success{Data: data})
}

// Created writes a 201 Created response with data wrapped in the standard success envelope.
func Created(writer http.ResponseWriter, data interface{}) {
	Write(writer, Success{Status: http.StatusCreated, Data: data})
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a standardized JSON API error response.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	logger := ctxutil.GetLogger(request.Context())

	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		// Unexpected internal error: log full details but hide them from the client.
		logger.ErrorContext(request.Context(), "unhandled_error_swallowed",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("request_id", ctxutil.GetRequestID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	JSON(writer, appError.HTTPStatus, ErrorEnvelope{
		Message: appError.Message,
		Error: ErrorBody{
			Code:    appError.Code,
			Details: appError.Details,
		},
	})
}
