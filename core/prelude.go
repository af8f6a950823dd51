package risp

import "fmt"

// prelude holds definitions written in the language itself.
const prelude = `
(def! not (fn* (a) (if a false true)))

(def! load-file
  (fn* (f) (eval (read-string (str "(do " (slurp f) "\nnil)")))))

(defmacro! cond
  (fn* (& xs)
    (if (> (count xs) 0)
      (list 'if (first xs)
        (if (> (count xs) 1)
          (nth xs 1)
          (throw "odd number of forms to cond"))
        (cons 'cond (rest (rest xs)))))))
`

func loadPrelude(env *Env) error {
	forms, err := ReadAll(prelude)
	if err != nil {
		return fmt.Errorf("prelude: %w", err)
	}
	for _, f := range forms {
		if _, err := Eval(f, env); err != nil {
			return fmt.Errorf("prelude: %w", err)
		}
	}
	return nil
}
