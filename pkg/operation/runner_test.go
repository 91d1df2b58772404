// Copyright 2025 walteh LLC
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

package operation

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

type funcOperation func(ctx context.Context) error

func (f funcOperation) Execute(ctx context.Context) error { return f(ctx) }

func TestRunner(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	boom := errors.New("boom")

	tests := []struct {
		name    string
		async   bool
		op      funcOperation
		wantErr error
	}{
		{name: "sync_success", op: func(ctx context.Context) error { return nil }},
		{name: "sync_error", op: func(ctx context.Context) error { return boom }, wantErr: boom},
		{name: "async_success", async: true, op: func(ctx context.Context) error { return nil }},
		{name: "async_error", async: true, op: func(ctx context.Context) error { return boom }, wantErr: boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRunner(&logger, tt.async).Run(context.Background(), tt.op)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRunnerAsyncCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewRunner(nil, true).Run(ctx, funcOperation(func(ctx context.Context) error {
		<-release
		return nil
	}))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
