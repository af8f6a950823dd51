package risp

// quasiquote rewrites a quasiquoted template into code that builds it
// with cons, concat and vec.
func quasiquote(form Form) Form {
	switch form.Kind {
	case KindList:
		if len(form.Items) == 2 && form.Items[0].IsSymbolNamed("unquote") {
			return form.Items[1]
		}
		return quasiquoteSeq(form.Items)
	case KindVector:
		return List(Sym("vec"), quasiquoteSeq(form.Items))
	case KindSymbol, KindHashMap:
		return List(Sym("quote"), form)
	default:
		return form
	}
}

// quasiquoteSeq folds from the right, splicing (splice-unquote x)
// elements with concat and consing everything else.
func quasiquoteSeq(items []Form) Form {
	acc := List()
	for i := len(items) - 1; i >= 0; i-- {
		elt := items[i]
		if elt.Kind == KindList && len(elt.Items) == 2 && elt.Items[0].IsSymbolNamed("splice-unquote") {
			acc = List(Sym("concat"), elt.Items[1], acc)
		} else {
			acc = List(Sym("cons"), quasiquote(elt), acc)
		}
	}
	return acc
}
