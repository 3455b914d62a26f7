package model

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger writing to stderr. JSON mode uses the
// production encoder, otherwise the console encoder. An unknown level falls
// back to info. stdout stays free for the stdio MCP transport.
func NewLogger(level string, json bool) (*zap.Logger, error) {
	var config zap.Config
	if json {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(ParseLogLevel(level))
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.DisableStacktrace = true
	return config.Build()
}

// ParseLogLevel maps a level name to a zap level, defaulting to info.
func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zapcore.WarnLevel
	case "":
		return zapcore.InfoLevel
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// FeedErrorFields flattens a FeedError into zap fields.
func FeedErrorFields(feedErr *FeedError) []zap.Field {
	if feedErr == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("error_id", feedErr.ID),
		zap.String("error_type", string(feedErr.ErrorType)),
		zap.String("error_class", string(feedErr.Class())),
	}
	if feedErr.Handle != "" {
		fields = append(fields, zap.String("handle", feedErr.Handle))
	}
	if feedErr.Component != "" {
		fields = append(fields, zap.String("component", feedErr.Component))
	}
	if feedErr.Operation != "" {
		fields = append(fields, zap.String("operation", feedErr.Operation))
	}
	if feedErr.URL != "" {
		fields = append(fields, zap.String("url", feedErr.URL))
	}
	if feedErr.HTTPStatus != 0 {
		fields = append(fields, zap.Int("http_status", feedErr.HTTPStatus))
	}
	if len(feedErr.HTTPHeaders) > 0 {
		fields = append(fields, zap.Any("http_headers", feedErr.HTTPHeaders))
	}
	if feedErr.Suggestion != "" {
		fields = append(fields, zap.String("suggestion", feedErr.Suggestion))
	}
	if feedErr.Cause != nil {
		fields = append(fields, zap.Error(feedErr.Cause))
	}
	return fields
}

// LogFeedError logs feedErr with its full context. Not-found results are
// logged at info since they are an expected outcome.
func LogFeedError(logger *zap.Logger, feedErr *FeedError) {
	if logger == nil || feedErr == nil {
		return
	}
	if feedErr.Class() == ClassNotFound {
		logger.Info(feedErr.Message, FeedErrorFields(feedErr)...)
		return
	}
	logger.Error(feedErr.Message, FeedErrorFields(feedErr)...)
}
