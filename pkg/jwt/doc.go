// Package jwt implements HS256 JSON Web Tokens with stdlib crypto.
//
// The notification subsystem only verifies tokens; the host CRM issues
// them at sign-in. The websocket handshake and the REST API both derive
// the authenticated user from StandardClaims.Subject.
//
//	svc, _ := jwt.New([]byte(secret))
//	var claims jwt.StandardClaims
//	if err := svc.Parse(token, &claims); err != nil {
//		// reject
//	}
//	userID := claims.Subject
package jwt
