package christmas

import (
	"bytes"

	"github.com/christmas-web3/christmas-server/pkg/solana"
)

var SayHelloInstructionDiscriminator = instructionDiscriminator("say_hello")

// NewSayHelloInstruction builds the no-op liveness instruction. It touches no
// accounts and has no effects.
func NewSayHelloInstruction() solana.Instruction {
	var offset int

	data := make([]byte, 8)
	putDiscriminator(data, SayHelloInstructionDiscriminator, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,
		Data:    data,
	}
}

func DecompileSayHello(ixn solana.Instruction) error {
	if !bytes.Equal(ixn.Program, PROGRAM_ADDRESS) {
		return ErrInvalidProgram
	}
	if !bytes.Equal(ixn.Data, SayHelloInstructionDiscriminator) {
		return solana.ErrIncorrectInstruction
	}
	return nil
}
