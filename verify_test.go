package pgrstjwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func TestVerify_Success(t *testing.T) {
	token := mustIssue(t, fixedClock(testNow), "mysecret", RoleServiceRole, DefaultTTLDays)

	claims, err := Verify(token, []byte("mysecret"), WithClock(fixedClock(testNow.Add(time.Hour))))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Role != RoleServiceRole {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if !claims.IssuedAt.Equal(testNow.Truncate(time.Second)) {
		t.Fatalf("unexpected iat: %s", claims.IssuedAt)
	}
	if got := claims.TTL(); got != DefaultTTLDays*24*time.Hour {
		t.Fatalf("unexpected ttl: %s", got)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	token := mustIssue(t, fixedClock(testNow), "mysecret", "anon", 1)

	for _, secret := range []string{"mysecret2", "Mysecret", "m", strings.Repeat("mysecret", 8)} {
		_, err := Verify(token, []byte(secret), WithClock(fixedClock(testNow)))
		if err == nil {
			t.Fatalf("expected error for secret %q", secret)
		}
		var e *Error
		if !errors.As(err, &e) {
			t.Fatalf("expected *Error, got %T", err)
		}
		if e.Code != ErrCodeInvalidSignature {
			t.Fatalf("expected %s, got %s", ErrCodeInvalidSignature, e.Code)
		}
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	token := mustIssue(t, fixedClock(testNow), "mysecret", "anon", 1)
	segments := strings.Split(token, ".")

	t.Run("escalated role", func(t *testing.T) {
		payload := strings.Replace(string(decodeSegment(t, segments[1])), `"anon"`, `"service_role"`, 1)
		forged := segments[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + segments[2]

		_, err := Verify(forged, []byte("mysecret"), WithClock(fixedClock(testNow)))
		if !IsCode(err, ErrCodeInvalidSignature) {
			t.Fatalf("expected %s, got %v", ErrCodeInvalidSignature, err)
		}
	})

	t.Run("every character", func(t *testing.T) {
		for i := range segments[1] {
			replacement := byte('A')
			if segments[1][i] == 'A' {
				replacement = 'B'
			}
			payload := []byte(segments[1])
			payload[i] = replacement
			forged := segments[0] + "." + string(payload) + "." + segments[2]

			if _, err := Verify(forged, []byte("mysecret"), WithClock(fixedClock(testNow))); err == nil {
				t.Fatalf("tampering payload index %d was not detected", i)
			}
		}
	})
}

func TestVerify_Expired(t *testing.T) {
	token := mustIssue(t, fixedClock(testNow), "mysecret", "anon", 1)
	later := testNow.Add(25 * time.Hour)

	_, err := Verify(token, []byte("mysecret"), WithClock(fixedClock(later)))
	if !IsCode(err, ErrCodeExpired) {
		t.Fatalf("expected %s, got %v", ErrCodeExpired, err)
	}

	if _, err := Verify(token, []byte("mysecret"),
		WithClock(fixedClock(later)),
		WithAcceptableSkew(2*time.Hour),
	); err != nil {
		t.Fatalf("Verify with skew: %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"one segment":  "abc",
		"two segments": "abc.def",
		"not base64":   "!!!.???.***",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Verify(token, []byte("mysecret"))
			if !IsCode(err, ErrCodeInvalidToken) {
				t.Fatalf("expected %s, got %v", ErrCodeInvalidToken, err)
			}
		})
	}
}

func TestVerify_EmptySecret(t *testing.T) {
	token := mustIssue(t, fixedClock(testNow), "mysecret", "anon", 1)
	if _, err := Verify(token, nil); !IsCode(err, ErrCodeInvalidSecret) {
		t.Fatalf("expected %s, got %v", ErrCodeInvalidSecret, err)
	}
}

func TestVerify_MissingRole(t *testing.T) {
	tok, err := jwt.NewBuilder().
		Subject("user-1").
		IssuedAt(testNow).
		Expiration(testNow.Add(time.Hour)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("mysecret")))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, err = Verify(string(signed), []byte("mysecret"), WithClock(fixedClock(testNow)))
	if !IsCode(err, ErrCodeInvalidToken) {
		t.Fatalf("expected %s, got %v", ErrCodeInvalidToken, err)
	}
}

func TestError_Format(t *testing.T) {
	err := newError(ErrCodeSigningFailed, errors.New("boom"))
	if got := err.Error(); got != "Signing failed: boom" {
		t.Fatalf("unexpected message: %s", got)
	}
	if !errors.Is(err, errors.Unwrap(err)) {
		t.Fatal("expected Unwrap to expose the cause")
	}
	if !IsCode(fmt.Errorf("wrapped: %w", err), ErrCodeSigningFailed) {
		t.Fatal("expected IsCode to see through wrapping")
	}
	if IsCode(errors.New("plain"), ErrCodeSigningFailed) {
		t.Fatal("expected IsCode to reject foreign errors")
	}
	bare := &Error{Code: ErrCodeExpired}
	if got := bare.Error(); got != string(ErrCodeExpired) {
		t.Fatalf("unexpected message: %s", got)
	}
}
