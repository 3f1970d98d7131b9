package memory

import (
	"testing"

	"github.com/christmas-web3/christmas-server/pkg/christmas/data/chain/tests"
)

func TestChainMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
