package callbacks

import (
	"errors"
	"strconv"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackDataGeneric(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Data: "\ftier|massage|short"})
	if key != "tier" || payload != "massage|short" {
		t.Fatalf("got %q %q", key, payload)
	}
}

func TestParseCallbackDataUnique(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Unique: "view", Data: "abc"})
	if key != "view" || payload != "abc" {
		t.Fatalf("got %q %q", key, payload)
	}
}

func TestParseCallbackDataNoPayload(t *testing.T) {
	key, payload := ParseCallbackData(&tele.Callback{Data: "\fprofile"})
	if key != "profile" || payload != "" {
		t.Fatalf("got %q %q", key, payload)
	}
	if k, p := ParseCallbackData(nil); k != "" || p != "" {
		t.Fatalf("nil callback should yield empty values")
	}
}

func TestSplitPayload(t *testing.T) {
	parts, err := SplitPayload("nails|long", "|")
	if err != nil || len(parts) != 2 || parts[1] != "long" {
		t.Fatalf("parts = %v, err = %v", parts, err)
	}
	if _, err := SplitPayload("", "|"); !errors.Is(err, strconv.ErrSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}
