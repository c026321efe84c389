package logger

import (
	"time"

	"go.uber.org/zap"
)

// Canonical field keys so every component logs the same names.
const (
	KeyURL       = "url"
	KeyPattern   = "pattern"
	KeyRequestID = "request_id"
	KeyHook      = "hook"
	KeyField     = "field"
	KeyMapper    = "mapper"
	KeyPlugin    = "plugin"
	KeyStatus    = "status"
	KeyLatency   = "latency"
)

func URL(u string) zap.Field            { return zap.String(KeyURL, u) }
func Pattern(p string) zap.Field        { return zap.String(KeyPattern, p) }
func RequestID(id string) zap.Field     { return zap.String(KeyRequestID, id) }
func Hook(kind string) zap.Field        { return zap.String(KeyHook, kind) }
func Field(key string) zap.Field        { return zap.String(KeyField, key) }
func Mapper(name string) zap.Field      { return zap.String(KeyMapper, name) }
func Plugin(name string) zap.Field      { return zap.String(KeyPlugin, name) }
func Status(code int) zap.Field         { return zap.Int(KeyStatus, code) }
func Latency(d time.Duration) zap.Field { return zap.Duration(KeyLatency, d) }
