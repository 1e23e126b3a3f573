package password

import (
	"strings"
	"testing"
)

// fast parameters for tests; production uses Default
var testParams = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify(t *testing.T) {
	phc, err := Hash(testParams, "correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("unexpected PHC prefix: %s", phc)
	}
	if !Verify("correct horse battery staple", phc) {
		t.Error("correct password rejected")
	}
	if Verify("wrong password", phc) {
		t.Error("wrong password accepted")
	}
}

func TestHashSaltsDiffer(t *testing.T) {
	a, _ := Hash(testParams, "same password")
	b, _ := Hash(testParams, "same password")
	if a == b {
		t.Error("two hashes of the same password are identical")
	}
}

func TestHashEmptyPassword(t *testing.T) {
	if _, err := Hash(testParams, ""); err == nil {
		t.Error("empty password accepted")
	}
}

func TestVerifyMalformed(t *testing.T) {
	for _, phc := range []string{
		"",
		"plaintext",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA",
	} {
		if Verify("anything", phc) {
			t.Errorf("malformed PHC accepted: %q", phc)
		}
	}
}
