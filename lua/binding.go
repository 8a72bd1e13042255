package lua

//#include "parser.h"
//TSLanguage *tree_sitter_lua();
import "C"
import (
	"unsafe"

	treesitter "github.com/jubnzv-go/godd"
)

func init() {
	ptr := unsafe.Pointer(C.tree_sitter_lua())
	treesitter.RegisterLanguage("lua", treesitter.NewLanguage(ptr))
}
