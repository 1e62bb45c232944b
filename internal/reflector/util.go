package reflector

import "strconv"

func u32str(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
