package account

// Config holds the HTTP-facing account settings.
type Config struct {
	// FrontendOrigin receives the OAuth callback redirect.
	FrontendOrigin    string `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:8550"`
	MergeVerifiedOnly bool   `env:"OAUTH_MERGE_VERIFIED_ONLY" envDefault:"false"`
	BcryptCost        int    `env:"BCRYPT_COST" envDefault:"10"`
}
