// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

// Package logging configures the structured slog logger used by s3fs-diag.
//
// Logs are JSON records on stderr. Every record carries the module name and
// version; debug-level records also carry their source location. Operator
// narration (banners, check results, "Success!!!") is not logging and goes
// through pkg/console on stdout, so the two streams can be redirected
// independently:
//
//	s3fs-diag --driver-log all 2>diag.jsonl
//
// The level comes from --log-level, falling back to the LOG_LEVEL
// environment variable, and defaults to info. Unknown names also resolve to
// info.
//
//	logging.SetDefaultStructuredLoggerWithLevel("s3fs-diag", version, "debug")
//	slog.Debug("agent ready", "daemonset", name, "ready", state.Ready)
//
// A typical debug record:
//
//	{"time":"2025-06-02T10:30:00Z","level":"DEBUG",
//	 "source":{"function":"agent.(*Deployer).AwaitReady","file":"wait.go","line":86},
//	 "msg":"agent ready","module":"s3fs-diag","version":"v0.3.0",
//	 "daemonset":"s3fs-diagnostic","ready":3,"attempts":2}
package logging
