package topofuzz

func copySchedule(s *List[*Choice], filter func(*Choice) bool) *List[*Choice] {
	newL := NewList[*Choice]()
	for _, e := range s.Iter() {
		if filter(e) {
			newL.Append(e.Copy())
		}
	}
	return newL
}

func defaultCopyFilter() func(*Choice) bool {
	return func(sc *Choice) bool {
		return true
	}
}
