package password

import "testing"

func testArgon2Params() Argon2idParams {
	return Argon2idParams{
		MemoryKiB:   8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestArgon2id_HashAndVerify_OK(t *testing.T) {
	h := NewArgon2idHasher(testArgon2Params())

	enc, err := h.Hash("this is a strong password 123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	res := h.Verify(enc, "this is a strong password 123!")
	if !res.Valid {
		t.Fatalf("expected match")
	}
	if res.UpdateHash {
		t.Fatalf("expected no update for current params")
	}
}

func TestArgon2id_Verify_WrongPassword(t *testing.T) {
	h := NewArgon2idHasher(testArgon2Params())

	enc, err := h.Hash("this is a strong password 123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if h.Verify(enc, "wrong password").Valid {
		t.Fatalf("expected mismatch")
	}
}

func TestArgon2id_Verify_InvalidHash(t *testing.T) {
	h := NewArgon2idHasher(testArgon2Params())

	for _, enc := range []string{"not-a-hash", "$argon2id$v=18$m=8192,t=1,p=1$AAAA$AAAA", "1000.AAAA"} {
		if h.Verify(enc, "whatever").Valid {
			t.Fatalf("expected invalid for %q", enc)
		}
	}
}

func TestArgon2id_UpdateHashWhenParamsGrow(t *testing.T) {
	old := NewArgon2idHasher(testArgon2Params())
	enc, err := old.Hash("this is a strong password 123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	p := testArgon2Params()
	p.Iterations = 2
	res := NewArgon2idHasher(p).Verify(enc, "this is a strong password 123!")
	if !res.Valid || !res.UpdateHash {
		t.Fatalf("expected valid + update, got %+v", res)
	}
}

func TestArgon2id_RefusesOversizedParams(t *testing.T) {
	big := testArgon2Params()
	big.Iterations = 5
	enc, err := NewArgon2idHasher(big).Hash("this is a strong password 123!")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	// Configured t=1 allows at most t=2 from storage.
	if NewArgon2idHasher(testArgon2Params()).Verify(enc, "this is a strong password 123!").Valid {
		t.Fatalf("expected oversized hash to be refused")
	}
}
