package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("decide: %w", New(CodeReservationAlreadyDecided, "reservation already decided"))

	if !stderrors.Is(err, New(CodeReservationAlreadyDecided, "")) {
		t.Fatal("expected code match through wrapping")
	}
	if stderrors.Is(err, New(CodeNotFound, "")) {
		t.Fatal("unexpected match for different code")
	}
}

func TestWrapUnwrapsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "store reservation", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: New(CodeReservationTitleInvalid, "bad"), want: http.StatusBadRequest},
		{err: New(CodeSessionRequired, "login"), want: http.StatusUnauthorized},
		{err: New(CodeAdminRequired, "admin"), want: http.StatusForbidden},
		{err: New(CodeNotFound, "missing"), want: http.StatusNotFound},
		{err: New(CodeReservationAlreadyDecided, "decided"), want: http.StatusConflict},
		{err: New(CodeReservationSlotUnavailable, "taken"), want: http.StatusConflict},
		{err: New(CodeUserEmailTaken, "taken"), want: http.StatusConflict},
		{err: stderrors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestGetCodeUnknownForPlainErrors(t *testing.T) {
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("code = %q, want %q", got, CodeUnknown)
	}
}

func TestToGRPCStatus(t *testing.T) {
	err := ToGRPCStatus(WithMetadata(CodeReservationSlotUnavailable, "slot taken", map[string]string{"room_id": "r1"}), "pt-BR")
	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("expected grpc status")
	}
	if st.Code() != codes.FailedPrecondition || st.Message() != "slot taken" {
		t.Fatalf("status = %v %q", st.Code(), st.Message())
	}
	var (
		info      *errdetails.ErrorInfo
		localized *errdetails.LocalizedMessage
	)
	for _, detail := range st.Details() {
		switch typed := detail.(type) {
		case *errdetails.ErrorInfo:
			info = typed
		case *errdetails.LocalizedMessage:
			localized = typed
		}
	}
	if info == nil || info.Reason != string(CodeReservationSlotUnavailable) || info.Domain != Domain || info.Metadata["room_id"] != "r1" {
		t.Fatalf("error info = %+v", info)
	}
	if localized == nil || localized.Locale != "pt-BR" || localized.Message == "" {
		t.Fatalf("localized = %+v", localized)
	}

	if ToGRPCStatus(nil, "") != nil {
		t.Fatal("expected nil for nil error")
	}
	if status.Code(ToGRPCStatus(stderrors.New("x"), "")) != codes.Internal {
		t.Fatal("expected internal for plain error")
	}
	passthrough := status.Error(codes.NotFound, "unknown service")
	if ToGRPCStatus(passthrough, "") != passthrough {
		t.Fatal("expected status errors to pass through")
	}
}

func TestNotificationCodesMapToHTTP(t *testing.T) {
	tests := map[Code]int{
		CodeNotificationRecipientRequired: http.StatusBadRequest,
		CodeNotificationTopicRequired:     http.StatusBadRequest,
		CodeNotificationDuplicate:         http.StatusConflict,
		CodeNotificationStoreUnavailable:  http.StatusServiceUnavailable,
	}
	for code, want := range tests {
		if got := code.HTTPStatus(); got != want {
			t.Fatalf("%s status = %d, want %d", code, got, want)
		}
	}
}
