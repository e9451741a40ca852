// Package auth stores opaque bearer tokens keyed by a short host label.
//
// Stores are tried in order: the system keychain (github.com/zalando/go-keyring),
// an AES-GCM encrypted file whose key is derived with PBKDF2, and finally
// read-only WALLCRAWL_TOKEN_<LABEL> environment variables.
package auth
