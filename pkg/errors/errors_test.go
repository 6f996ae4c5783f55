// Package errors_test covers the AppError type, factory functions and the
// error-chain helpers.
package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ESG-Materiality/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// New
// ─────────────────────────────────────────────────────────────────────────────

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal error", errors.CodeInternal, "unexpected failure"},
		{"dashboard not found", errors.ErrCodeDashboardNotFound, "dashboard 42/2024 not found"},
		{"invalid axis", errors.ErrCodeInvalidAxisRange, "x axis min must be below max"},
		{"invalid coordinate", errors.ErrCodeInvalidCoordinate, "priority is NaN"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)

			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestNew_StackContainsCaller(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.CodeInternal, "test")
	assert.Contains(t, ae.Stack, "errors_test.go")
}

func TestNewf_FormatsMessage(t *testing.T) {
	t.Parallel()

	ae := errors.Newf(errors.ErrCodeYearInvalid, "year %d out of range", 1890)
	assert.Equal(t, "year 1890 out of range", ae.Message)
	assert.Equal(t, errors.ErrCodeYearInvalid, ae.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Wrap
// ─────────────────────────────────────────────────────────────────────────────

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "should not matter"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("dial tcp: connection refused")
	wrapped := errors.Wrap(root, errors.ErrCodeDatabaseError, "postgres unreachable")

	require.NotNil(t, wrapped)
	assert.Equal(t, errors.ErrCodeDatabaseError, wrapped.Code)
	assert.Equal(t, root, wrapped.Cause)
	assert.Equal(t, root, stderrors.Unwrap(wrapped))
	assert.True(t, stderrors.Is(wrapped, root))
}

func TestWrap_PreservesOriginalCodeWhenCodeUnknown(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeDashboardNotFound, "not found")
	outer := errors.Wrap(inner, errors.CodeUnknown, "adding context")

	assert.Equal(t, errors.ErrCodeDashboardNotFound, outer.Code)
}

func TestWrap_OverridesCodeWhenExplicit(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeDashboardNotFound, "not found")
	outer := errors.Wrap(inner, errors.CodeInternal, "unexpected state")

	assert.Equal(t, errors.CodeInternal, outer.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Error()
// ─────────────────────────────────────────────────────────────────────────────

func TestError_Format(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeInvalidAxisRange, "malformed axis")
	assert.Equal(t, "[MTX_004] malformed axis", ae.Error())

	detailed := ae.WithDetail("min=3 max=1")
	assert.Equal(t, "[MTX_004] malformed axis: min=3 max=1", detailed.Error())
	assert.False(t, strings.Contains(ae.Error(), "min=3"), "WithDetail must not mutate the original")
}

// ─────────────────────────────────────────────────────────────────────────────
// WithDetail / WithCause
// ─────────────────────────────────────────────────────────────────────────────

func TestWithDetail_NilReceiverReturnsNil(t *testing.T) {
	t.Parallel()

	var ae *errors.AppError
	assert.Nil(t, ae.WithDetail("x"))
	assert.Nil(t, ae.WithCause(stderrors.New("x")))
}

func TestWithCause_AttachesCause(t *testing.T) {
	t.Parallel()

	root := stderrors.New("driver: bad connection")
	original := errors.New(errors.ErrCodeDatabaseError, "database error")
	ae := original.WithCause(root)

	assert.Equal(t, root, stderrors.Unwrap(ae))
	assert.Nil(t, original.Cause)
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

func TestIsCode_ThroughFmtWrapping(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeInvalidCoordinate, "NaN")
	wrapped := fmt.Errorf("collect: %w", inner)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeInvalidCoordinate))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeInvalidAxisRange))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeInvalidCoordinate))
}

func TestClassificationHelpers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		notFound   bool
		validation bool
		conflict   bool
	}{
		{"dashboard missing", errors.New(errors.ErrCodeDashboardNotFound, "x"), true, false, false},
		{"generic not found", errors.NotFound("x"), true, false, false},
		{"axis range", errors.New(errors.ErrCodeInvalidAxisRange, "x"), false, true, false},
		{"coordinate", errors.New(errors.ErrCodeInvalidCoordinate, "x"), false, true, false},
		{"export running", errors.New(errors.ErrCodeExportInProgress, "x"), false, false, true},
		{"wrapped not found", errors.Wrap(errors.New(errors.ErrCodeGroupNotFound, "x"), errors.CodeUnknown, "ctx"), true, false, false},
		{"cause is not found", errors.Wrap(errors.NotFound("x"), errors.CodeInternal, "ctx"), true, false, false},
		{"plain error", stderrors.New("x"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.notFound, errors.IsNotFound(tc.err))
			assert.Equal(t, tc.validation, errors.IsValidation(tc.err))
			assert.Equal(t, tc.conflict, errors.IsConflict(tc.err))
		})
	}
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeCacheError,
		errors.GetCode(fmt.Errorf("wrap: %w", errors.New(errors.ErrCodeCacheError, "x"))))
}

func TestHTTPStatusMethod(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 404, errors.New(errors.ErrCodeDashboardNotFound, "x").HTTPStatus())
	assert.Equal(t, 500, errors.New(errors.ErrorCode("NOPE"), "x").HTTPStatus())
}
