package app

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/mattn/go-isatty"
)

var errPasswordRequired = errors.New("password is required: use --password or SALESDASH_PASSWORD")

// promptPassword は端末からパスワードをマスク入力で受け取る。
// inが端末でない場合は入力を待たずにエラーを返す。
func promptPassword(in io.Reader) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return "", errPasswordRequired
	}

	templates := &promptui.PromptTemplates{
		Prompt:  "{{ . | bold }} ",
		Valid:   "{{ . | green }} ",
		Invalid: "{{ . | red }} ",
		Success: "{{ . | bold }} ",
	}

	prompt := promptui.Prompt{
		Label:     "Password:",
		Templates: templates,
		Stdin:     f,
		Mask:      '•',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("please enter a password")
			}
			return nil
		},
	}

	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return "", errors.New("login cancelled")
		}
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return result, nil
}
