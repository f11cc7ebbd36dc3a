// Copyright 2025 Dominik Schlosser
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package obslog supplies the library's default structured logger. Every
// processor accepts a *zap.Logger directly (fhirbundle.WithLogger,
// jws.WithLogger); this package only centralizes the two ways of getting
// one so host applications and the facade construct loggers the same way.
package obslog

import "go.uber.org/zap"

// Default is the logger every processor uses when no *zap.Logger is
// supplied: it never writes, so embedding this library never forces
// logging configuration on a caller.
func Default() *zap.Logger {
	return zap.NewNop()
}

// New builds a production JSON logger, for host applications (including
// cmd/shccard) that want the facade's debug-level tracing without wiring
// their own zap.Config.
func New() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return cfg.Build()
}
