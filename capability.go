package veneer

// EncryptAlgo names an encryption algorithm usable with Sealed.
type EncryptAlgo string

const (
	// EncryptAES seals values with AES-GCM.
	EncryptAES EncryptAlgo = "aes"

	// EncryptEnvelope seals values with a per-value data key wrapped by a master key.
	EncryptEnvelope EncryptAlgo = "envelope"
)

// HashAlgo names a hashing algorithm usable with Hashed.
type HashAlgo string

const (
	// HashArgon2 uses Argon2id (salted, slow).
	HashArgon2 HashAlgo = "argon2"

	// HashBcrypt uses bcrypt (salted, slow).
	HashBcrypt HashAlgo = "bcrypt"

	// HashSHA256 uses SHA-256 (deterministic). Suited to fingerprints and ETags.
	HashSHA256 HashAlgo = "sha256"

	// HashSHA512 uses SHA-512 (deterministic).
	HashSHA512 HashAlgo = "sha512"
)

var validEncryptAlgos = map[EncryptAlgo]bool{
	EncryptAES:      true,
	EncryptEnvelope: true,
}

var validHashAlgos = map[HashAlgo]bool{
	HashArgon2: true,
	HashBcrypt: true,
	HashSHA256: true,
	HashSHA512: true,
}

var validMaskTypes = map[MaskType]bool{
	MaskSSN:   true,
	MaskEmail: true,
	MaskPhone: true,
	MaskCard:  true,
	MaskIP:    true,
	MaskUUID:  true,
	MaskIBAN:  true,
	MaskName:  true,
}

// IsValidEncryptAlgo returns true if the algorithm is a known encryption algorithm.
func IsValidEncryptAlgo(algo EncryptAlgo) bool {
	return validEncryptAlgos[algo]
}

// IsValidHashAlgo returns true if the algorithm is a known hash algorithm.
func IsValidHashAlgo(algo HashAlgo) bool {
	return validHashAlgos[algo]
}

// IsValidMaskType returns true if the type is a known mask type.
func IsValidMaskType(mt MaskType) bool {
	return validMaskTypes[mt]
}
