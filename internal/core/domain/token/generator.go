package token

type CodeGenerator interface {
	GenerateCode() Code
}
