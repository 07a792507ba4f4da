package room

import "golang.org/x/crypto/bcrypt"

// Config holds registry tuning with environment variable support.
type Config struct {
	// BcryptCost is the cost used to hash room passwords. The default
	// matches bcrypt.DefaultCost.
	BcryptCost int `env:"ROOM_BCRYPT_COST" envDefault:"10"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BcryptCost: bcrypt.DefaultCost,
	}
}
