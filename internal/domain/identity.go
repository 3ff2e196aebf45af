package domain

// IdentityAssertion es la identidad que afirma un proveedor externo ya verificado.
// No se persiste: solo sirve para encontrar o crear una Account.
type IdentityAssertion struct {
	Provider string
	Subject  string
	Email    string
	Name     string
	Verified bool
}
