// Package pr даёт тонкую обёртку для вывода и ввода в терминале.
// Инициализирует readline с отменяемым stdin, переназначает stdout/stderr на его буферы
// (чтобы логи не рвали строку ввода при регистрации сессии) и даёт удобные функции
// печати и pretty-дампа ответов API для отладки.

package pr

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/kr/pretty"
)

var (
	// rl: активный инстанс readline. Появляется после Init(). Может быть nil до инициализации.
	rl *readline.Instance
	// out: текущий поток стандартного вывода. До Init(): os.Stdout; после: rl.Stdout().
	out io.Writer = os.Stdout
	// errOut: поток вывода ошибок. До Init(): os.Stderr; после: rl.Stderr().
	errOut io.Writer = os.Stderr
	// mu защищает замену ссылок на writer'ы и cancelableIn. Не сериализует сами записи.
	mu sync.Mutex

	// cancelableIn: stdin, закрытие которого прерывает ожидание ввода (io.EOF в readline).
	cancelableIn interface{ Close() error }
)

// Init настраивает readline и перенаправляет внутренние потоки вывода на его stdout/stderr.
func Init() error {
	cs := readline.NewCancelableStdin(os.Stdin)
	newRl, err := readline.NewEx(&readline.Config{Stdin: cs})
	if err != nil {
		_ = cs.Close()
		return err
	}

	mu.Lock()
	rl = newRl
	cancelableIn = cs
	out = rl.Stdout()
	errOut = rl.Stderr()
	mu.Unlock()

	return nil
}

// Close прерывает ожидание ввода и освобождает терминал. Идемпотентна.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if cancelableIn != nil {
		_ = cancelableIn.Close()
		cancelableIn = nil
	}
	if rl != nil {
		_ = rl.Close()
		rl = nil
	}
}

// ReadLine выводит приглашение и читает строку, обрезая пробелы по краям.
// Требует предварительного Init().
func ReadLine(prompt string) (string, error) {
	mu.Lock()
	inst := rl
	mu.Unlock()
	if inst == nil {
		return "", fmt.Errorf("pr: readline is not initialized")
	}
	inst.SetPrompt(prompt)
	line, err := inst.Readline()
	return strings.TrimSpace(line), err
}

// Stdout возвращает текущий writer стандартного вывода.
func Stdout() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return out
}

// Stderr возвращает текущий writer ошибок.
func Stderr() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return errOut
}

// Print печатает значения в Stdout без перевода строки.
func Print(a ...any) {
	fmt.Fprint(Stdout(), a...)
}

// Println печатает значения в Stdout и добавляет перевод строки.
func Println(a ...any) {
	fmt.Fprintln(Stdout(), a...)
}

// Printf форматирует строку и печатает её в Stdout.
func Printf(format string, a ...any) {
	fmt.Fprintf(Stdout(), format, a...)
}

// Pf возвращает pretty-строку значения. Полезно для debug-логов ответов API; помните про аллокации.
func Pf(v any) string {
	return fmt.Sprintf("%# v", pretty.Formatter(v))
}
