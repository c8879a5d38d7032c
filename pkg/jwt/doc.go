// Package jwt issues and verifies the API's bearer access tokens.
//
// Tokens are HMAC-signed JWTs (github.com/golang-jwt/jwt/v5) with the claims
// {sub, iat, exp}; the subject is the user id. The algorithm, secret and
// lifetime come from Config (SECRET_KEY, ALGORITHM, ACCESS_TOKEN_EXPIRE_MINUTES).
//
//	svc, err := jwt.NewFromConfig(cfg)
//	token, err := svc.Issue(user.ID)
//	userID, err := svc.Verify(token)
//
// Verify never distinguishes failure causes for callers beyond
// ErrExpiredToken; everything else is just ErrInvalidToken.
package jwt
