package common

// Session keys shared by the authenticator, the firewall and the login page.
const (
	SessionKeyLastUsername = "_security.last_username"
	SessionKeyTargetPath   = "_security.main.target_path"
	SessionKeyLastError    = "_security.last_error"
	SessionKeyIdentity     = "_security_main"
)

// Roles assigned to users.
const (
	RoleUser      = "USER"
	RoleApplicant = "APPLICANT"
)

// SessionCookieName is the cookie carrying the signed session id.
const SessionCookieName = "CONFSESSID"
