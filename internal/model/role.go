package model

import "strings"

// Role names used across all services.  A role is a coarse permission tier
// embedded into a token at issuance time; it is authoritative only at that
// moment.  The values are the Portuguese identifiers the original intranet
// integration established, so they are wire format and must not be renamed.
const (
	RolePadrao        = "padrao"        // standard user
	RoleCoordenador   = "coordenador"   // department/room coordinator
	RoleAdministrador = "administrador" // administrative override role
	RoleServidor      = "servidor"      // staff
	RoleSeguranca     = "seguranca"     // security personnel
)

// KnownRoles enumerates every role the consumer will materialize a profile
// for.  Events carrying anything else still upsert the actor row but no
// profile marker.
var KnownRoles = []string{
	RolePadrao,
	RoleCoordenador,
	RoleAdministrador,
	RoleServidor,
	RoleSeguranca,
}

// affiliationRoles maps the identity provider's tipo_vinculo field to a
// local role.  Anything not listed degrades to the standard role.
var affiliationRoles = map[string]string{
	"aluno":    RolePadrao,
	"servidor": RoleServidor,
}

// RoleFromAffiliation resolves the role granted to an externally
// authenticated user from the provider's reported affiliation type.
func RoleFromAffiliation(tipoVinculo string) string {
	if r, ok := affiliationRoles[strings.ToLower(tipoVinculo)]; ok {
		return r
	}
	return RolePadrao
}

// ValidRole reports whether name is one of the known role identifiers.
func ValidRole(name string) bool {
	for _, r := range KnownRoles {
		if r == name {
			return true
		}
	}
	return false
}
