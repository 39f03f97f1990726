package auth

import "testing"

func TestHashPassword(t *testing.T) {
	t.Run("Round trip verifies", func(t *testing.T) {
		hash, err := HashPassword("pw1")
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		if !CheckPassword("pw1", hash) {
			t.Error("CheckPassword rejected the original password")
		}
	})

	t.Run("Wrong password rejected", func(t *testing.T) {
		hash, err := HashPassword("pw1")
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		if CheckPassword("pw2", hash) {
			t.Error("CheckPassword accepted a different password")
		}
	})

	t.Run("Hashes are salted", func(t *testing.T) {
		h1, _ := HashPassword("pw1")
		h2, _ := HashPassword("pw1")
		if h1 == h2 {
			t.Error("two hashes of the same password are identical")
		}
	})

	t.Run("Malformed hash is a mismatch", func(t *testing.T) {
		if CheckPassword("pw1", "not-a-bcrypt-hash") {
			t.Error("CheckPassword accepted a malformed hash")
		}
		if CheckPassword("pw1", "") {
			t.Error("CheckPassword accepted an empty hash")
		}
	})
}
