package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tg-relay/client"
)

const longHelp = `CLI для tg-relay: отправка текста и файлов в телеграм.

Примеры:
* Отправить текст:
    $ tgcli "Привет"

* Отправить файл или картинку:
    $ tgcli -f ./image.jpg
    $ tgcli -f ./logs.txt

* Переслать вывод команды:
    $ cat file.txt | tgcli
    $ ./run_my_script.sh | tail -n 30 | tgcli

* Дождаться ответа:
    $ should_run=$(tgcli "Запустить ещё раз? 0-нет; 1-да;" -r)

* Дождаться ответа с клавиатурой:
    $ should_run=$(tgcli "Запустить ещё раз?" -c "да;нет")
`

func main() {
	var (
		filePath  string
		fileName  string
		waitReply bool
		choice    string
	)

	cmd := &cobra.Command{
		Use:          "tgcli [text]",
		Short:        "Отправка сообщений в телеграм через tg-relay",
		Long:         longHelp,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) > 0 {
				text = args[0]
			}
			return run(cmd.Context(), text, filePath, fileName, waitReply, choice)
		},
	}

	cmd.Flags().StringVarP(&filePath, "filepath", "f", "", "файл для отправки; тип определяется по расширению")
	cmd.Flags().StringVarP(&fileName, "filename", "n", "", "имя файла, видимое в телеграме (по умолчанию имя из --filepath)")
	cmd.Flags().BoolVarP(&waitReply, "wait-reply", "r", false, "дождаться одного ответного сообщения")
	cmd.Flags().StringVarP(&choice, "choice", "c", "", `дождаться ответа из списка, пример: -c "да;нет"`)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, text, filePath, fileName string, waitReply bool, choice string) error {
	c := client.FromEnv()

	if text == "" && filePath == "" {
		return runFromStdin(ctx, c)
	}

	opts := client.SendOptions{Text: text}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("файл '%s' не читается: %w", filePath, err)
		}
		opts.Data = data
		opts.Filename = fileName
		if opts.Filename == "" {
			opts.Filename = filepath.Base(filePath)
		}
	}

	if choice != "" {
		opts.KeyboardChoice = strings.Split(choice, ";")
	}

	wait := waitReply || choice != ""
	if wait {
		opts.Text = fmt.Sprintf("*❓ REPLY TO THIS MESSAGE: *\n---\n```\n%s\n```", opts.Text)
		opts.Markdown = true
	}

	messageID, err := c.Send(ctx, opts)
	if err != nil {
		return fmt.Errorf("отправка не удалась: %w", err)
	}

	if !wait {
		return nil
	}

	replies, err := c.WaitReplies(ctx, []string{messageID}, 100*time.Millisecond)
	if err != nil {
		return fmt.Errorf("не удалось получить ответ: %w", err)
	}
	events := replies[messageID]
	if len(events) == 0 {
		return errors.New("ответ не получен")
	}
	fmt.Println(events[0].Text)
	return nil
}

// runFromStdin пересылает пайп в чат, нарезая его на сообщения,
// влезающие в лимит телеграма.
func runFromStdin(ctx context.Context, c *client.Client) error {
	info, err := os.Stdin.Stat()
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeCharDevice != 0 {
		return errors.New("нужен текст, --filepath или пайп на stdin")
	}

	chunks, err := client.ReadChunks(os.Stdin, client.MaxMessageLen)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if _, err := c.Send(ctx, client.SendOptions{Text: chunk}); err != nil {
			return fmt.Errorf("отправка не удалась: %w", err)
		}
	}
	return nil
}
