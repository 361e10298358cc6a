// Copyright 2025 Google LLC
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

// Package logfabric gives every model its own structured log sink, fed
// only by LogRecords the engine routes to it, plus one aggregate
// "_task_info" log naming the pipeline composition chosen for each model
// at batch start.
package logfabric

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/deeppavlov/cluster-deployer/pkg/deployitem"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fabric owns one log sink per model plus the aggregate task-info sink. It
// is safe for concurrent use by the engine's single dispatch loop and by
// Shutdown.
type Fabric struct {
	logDir string

	mu    sync.Mutex
	sinks map[string]*modelSink

	taskInfoFile *os.File
	taskInfo     *zap.Logger
}

type modelSink struct {
	file   *os.File
	logger *zap.Logger
}

// New creates logDir if necessary and opens the aggregate task-info log.
func New(logDir string) (*Fabric, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logfabric: creating log dir: %w", err)
	}

	path := filepath.Join(logDir, "_task_info.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logfabric: opening task-info log: %w", err)
	}

	return &Fabric{
		logDir:       logDir,
		sinks:        make(map[string]*modelSink),
		taskInfoFile: f,
		taskInfo:     newFileLogger(f),
	}, nil
}

func newFileLogger(f *os.File) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(f), zapcore.InfoLevel)
	return zap.New(core)
}

// TaskStarted records the pipeline composition chosen for each model at
// batch start in the aggregate _task_info log.
func (f *Fabric) TaskStarted(pipelineName string, modelNames []string, stages []string) {
	f.taskInfo.Info("deployment batch started",
		zap.String("pipeline", pipelineName),
		zap.Strings("models", modelNames),
		zap.Strings("stages", stages),
	)
}

// sinkFor returns (creating if necessary) the per-model zap logger, which
// writes to a file named <utcTimestamp>_<fullName>.log created the first
// time the model is seen.
func (f *Fabric) sinkFor(modelName string) (*zap.Logger, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.sinks[modelName]; ok {
		return s.logger, nil
	}

	fileName := fmt.Sprintf("%s_%s.log", time.Now().UTC().Format("20060102T150405Z"), modelName)
	path := filepath.Join(f.logDir, fileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logfabric: opening log for %s: %w", modelName, err)
	}

	logger := newFileLogger(file)
	f.sinks[modelName] = &modelSink{file: file, logger: logger}
	return logger, nil
}

// Record routes a single LogRecord to its model's sink. A failure to open
// the sink is itself logged to the task-info log rather than propagated,
// since the logging fabric must never be the reason a batch aborts.
func (f *Fabric) Record(rec deployitem.LogRecord) {
	logger, err := f.sinkFor(rec.ModelName)
	if err != nil {
		f.taskInfo.Error("failed to route log record", zap.String("model", rec.ModelName), zap.Error(err))
		return
	}

	fields := []zap.Field{zap.String("model", rec.ModelName)}
	if rec.Extended != "" {
		fields = append(fields, zap.String("extended", rec.Extended))
	}

	switch rec.Level {
	case deployitem.LevelError:
		logger.Error(rec.Message, fields...)
	default:
		logger.Info(rec.Message, fields...)
	}
}

// Close flushes and closes every open sink.
func (f *Fabric) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for _, s := range f.sinks {
		_ = s.logger.Sync()
		if err := s.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	_ = f.taskInfo.Sync()
	if err := f.taskInfoFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
