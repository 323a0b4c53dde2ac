// Command oozedemo is an example host wiring three native modules into an
// Env: hashed passwords (golang.org/x/crypto/bcrypt, pbkdf2), a small
// sqlite-backed key/value store (modernc.org/sqlite), and an
// immutable string vector (src.elv.sh/pkg/persistent/vector) -- the same
// stack the teacher itself depends on (source/compiler/vm.go imports
// database/sql and src.elv.sh/pkg/persistent/vector directly), demonstrating
// how a host plugs domain types into NativeRegistry.
package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"crypto/sha256"
	"src.elv.sh/pkg/persistent/vector"

	"github.com/ooze-lang/ooze/source/ast"
	"github.com/ooze-lang/ooze/source/async"
	"github.com/ooze-lang/ooze/source/env"
)

func main() {
	registry := env.NewNativeRegistry()

	// A password_hash is an immutable fixed-size digest with no backing
	// store to share, so it's cheap enough to duplicate: AddCopyableType
	// marks it PassBy::Copy-eligible instead of move/borrow-only.
	passwordHashT := registry.AddCopyableType("password_hash")
	kvHandleT := registry.AddType("kv_handle")
	stringVecT := registry.AddType("string_vec")

	registerPasswordFns(registry, passwordHashT)
	registerKVFns(registry, kvHandleT)
	registerVectorFns(registry, stringVecT)

	e := env.New(registry)
	executor := async.NewTaskExecutor(4)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: oozedemo <script.ooze>")
		os.Exit(1)
	}
	src, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if es := e.ParseScripts(map[string]string{os.Args[1]: string(src)}); es.HasErrors() {
		fmt.Fprint(os.Stderr, es.Render(nil))
		os.Exit(1)
	}
	out, _, es := e.Run(executor, env.Bindings{}, "main(())")
	if es.HasErrors() {
		fmt.Fprint(os.Stderr, es.Render(nil))
		os.Exit(1)
	}
	for _, v := range out.Values {
		fmt.Println(v.Future().Wait())
	}
}

// registerPasswordFns wires bcrypt for storage-grade password hashing and
// pbkdf2 for a fixed-length symmetric key derivation, both of which the
// teacher's own stack already vendors (golang.org/x/crypto).
func registerPasswordFns(r *env.NativeRegistry, passwordHashT ast.TypeID) {
	r.AddFn("hash_password",
		env.Leaf(ast.TyString), env.Leaf(passwordHashT), []bool{false},
		func(args []async.Any) []async.Any {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0].(string)), bcrypt.DefaultCost)
			if err != nil {
				panic(err)
			}
			return []async.Any{string(hash)}
		})

	r.AddFn("check_password",
		env.TupleT(env.Leaf(ast.TyString), env.Leaf(passwordHashT)), env.Leaf(ast.TyBool), []bool{false, false},
		func(args []async.Any) []async.Any {
			err := bcrypt.CompareHashAndPassword([]byte(args[1].(string)), []byte(args[0].(string)))
			return []async.Any{err == nil}
		})

	r.AddFn("derive_key",
		env.TupleT(env.Leaf(ast.TyString), env.Leaf(ast.TyString)), env.Leaf(ast.TyByteVector), []bool{false, false},
		func(args []async.Any) []async.Any {
			password, salt := args[0].(string), args[1].(string)
			key := pbkdf2.Key([]byte(password), []byte(salt), 100000, 32, sha256.New)
			return []async.Any{key}
		})
}

// registerKVFns wires a tiny sqlite-backed key/value store, demonstrating a
// stateful native handle (kv_handle) threaded through Ooze as an opaque
// value the runtime never inspects.
func registerKVFns(r *env.NativeRegistry, kvHandleT ast.TypeID) {
	r.AddFn("kv_open",
		env.Leaf(ast.TyString), env.Leaf(kvHandleT), []bool{false},
		func(args []async.Any) []async.Any {
			db, err := sql.Open("sqlite", args[0].(string))
			if err != nil {
				panic(err)
			}
			if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
				panic(err)
			}
			return []async.Any{db}
		})

	r.AddFn("kv_set",
		env.TupleT(env.Leaf(kvHandleT), env.Leaf(ast.TyString), env.Leaf(ast.TyString)), env.Leaf(ast.TyBool), []bool{false, false, false},
		func(args []async.Any) []async.Any {
			db := args[0].(*sql.DB)
			_, err := db.Exec(`INSERT INTO kv(k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, args[1], args[2])
			return []async.Any{err == nil}
		})

	r.AddFn("kv_get",
		env.TupleT(env.Leaf(kvHandleT), env.Leaf(ast.TyString)), env.Leaf(ast.TyString), []bool{false, false},
		func(args []async.Any) []async.Any {
			db := args[0].(*sql.DB)
			var v string
			_ = db.QueryRow(`SELECT v FROM kv WHERE k = ?`, args[1]).Scan(&v)
			return []async.Any{v}
		})
}

// registerVectorFns wires src.elv.sh's persistent vector as Ooze's
// string_vec: append is O(log n) and non-destructive, matching Ooze's
// move-by-default semantics (the old vector value stays reachable through
// whichever binding still holds it).
func registerVectorFns(r *env.NativeRegistry, stringVecT ast.TypeID) {
	r.AddFn("vec_empty",
		env.TupleT(), env.Leaf(stringVecT), nil,
		func(args []async.Any) []async.Any {
			return []async.Any{vector.Empty}
		})

	r.AddFn("vec_push",
		env.TupleT(env.Leaf(stringVecT), env.Leaf(ast.TyString)), env.Leaf(stringVecT), []bool{false, false},
		func(args []async.Any) []async.Any {
			v := args[0].(vector.Vector)
			return []async.Any{v.Conj(args[1])}
		})

	r.AddFn("vec_get",
		env.TupleT(env.Leaf(stringVecT), env.Leaf(ast.TyI32)), env.Leaf(ast.TyString), []bool{false, false},
		func(args []async.Any) []async.Any {
			v := args[0].(vector.Vector)
			i := args[1].(int64)
			elem, _ := v.Index(int(i))
			return []async.Any{elem}
		})
}
