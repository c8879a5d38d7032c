package userstore

const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "email_to_id:"
	stateKeyPrefix = "oauth_state:"
	directoryKey   = "users:all"
)

func userKey(id string) string { return userKeyPrefix + id }
func emailKey(email string) string { return emailKeyPrefix + email }
func stateKey(nonce string) string { return stateKeyPrefix + nonce }
