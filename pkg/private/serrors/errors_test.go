// Copyright 2026 The NetPlumber Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serrors_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/netplumber/netplumber/pkg/private/serrors"
)

type testErrType struct {
	msg string
}

func (e *testErrType) Error() string {
	return e.msg
}

func TestWrap(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err := serrors.New("simple err")
		wrapped := serrors.Wrap("msg", err, "someCtx", "someValue")
		assert.ErrorIs(t, wrapped, err)
		assert.ErrorIs(t, wrapped, wrapped)
	})
	t.Run("As", func(t *testing.T) {
		err := &testErrType{msg: "test err"}
		wrapped := serrors.WrapNoStack("msg", err, "someCtx", "someValue")
		var errAs *testErrType
		require.True(t, errors.As(wrapped, &errAs))
		assert.Equal(t, err, errAs)
	})
}

func TestNew(t *testing.T) {
	err1 := serrors.New("err msg", "table", 1)
	err2 := serrors.New("err msg", "table", 1)
	assert.ErrorIs(t, err1, err1)
	assert.False(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err2, err1))
}

func TestJoin(t *testing.T) {
	sentinel := serrors.New("no such table")
	cause := &testErrType{msg: "cause"}
	joined := serrors.JoinNoStack(sentinel, cause, "table", 3)
	assert.ErrorIs(t, joined, sentinel)
	var errAs *testErrType
	require.True(t, errors.As(joined, &errAs))
	assert.Equal(t, cause, errAs)

	assert.Nil(t, serrors.Join(nil, nil))
	assert.ErrorIs(t, serrors.Join(nil, sentinel), sentinel)
}

func TestErrorString(t *testing.T) {
	testCases := map[string]struct {
		err      error
		expected string
	}{
		"plain": {
			err:      serrors.New("bad port"),
			expected: "bad port",
		},
		"context is sorted": {
			err:      serrors.New("bad port", "port", 4, "table", 1),
			expected: "bad port {port=4; table=1}",
		},
		"wrapped": {
			err: serrors.Wrap("adding rule", serrors.New("bad port", "port", 4),
				"rule", 10),
			expected: "adding rule {rule=10}: bad port {port=4}",
		},
		"joined": {
			err: serrors.JoinNoStack(serrors.New("invalid header"),
				errors.New("odd length")),
			expected: "invalid header: odd length",
		},
		"list": {
			err:      serrors.List{errors.New("a"), errors.New("b")},
			expected: "[ a; b ]",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestList(t *testing.T) {
	var errs serrors.List
	assert.Nil(t, errs.ToError())
	first := serrors.New("err1")
	errs = serrors.List{first, serrors.New("err2")}
	assert.ErrorIs(t, errs.ToError(), first)
}

func TestAtMostOneStacktrace(t *testing.T) {
	err := errors.New("core")
	for i := range [10]int{} {
		err = serrors.Wrap("wrap", err, "level", i)
	}

	var b bytes.Buffer
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{MessageKey: "msg"}),
		zapcore.AddSync(&b),
		zapcore.DebugLevel,
	))
	logger.Sugar().Infow("Failed", "err", err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(b.Bytes(), &parsed))
	assert.Equal(t, 1, bytes.Count(b.Bytes(), []byte("stacktrace")))
}
