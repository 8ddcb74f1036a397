package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tg-relay/client"
	"tg-relay/internal/infra/log"
	"tg-relay/internal/monitor"
)

func main() {
	root := &cobra.Command{
		Use:          "tgcli-monitor",
		Short:        "Мониторы, публикующие файлы и логи в телеграм через tg-relay",
		SilenceUsage: true,
	}

	root.AddCommand(fileCmd(), tailCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}
}

func newPublisher() *monitor.Publisher {
	logger := log.NewLogger("prod", os.Getenv("TGCLI_DEBUG") != "")
	return &monitor.Publisher{
		Client: client.FromEnv(),
		Log:    logger.With().Str("component", "monitor").Logger(),
	}
}

func fileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "file <path> [interval]",
		Short: "Отправлять файл по интервалу или при изменении",
		Long: `Отправка файла по интервалу:
    $ tgcli-monitor file ./my_file.txt 10m

При изменении (по умолчанию):
    $ tgcli-monitor file ./my_file.txt
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return fmt.Errorf("'%s' — это каталог", path)
			}
			if _, err := os.Stat(path); err != nil {
				fmt.Printf("Файла '%s' нет, ждём его появления...\n", path)
			}

			p := newPublisher()
			if len(args) == 1 || args[1] == "onchange" {
				return p.RunFileOnChange(cmd.Context(), path)
			}
			interval, err := monitor.ParseInterval(args[1])
			if err != nil {
				return err
			}
			return p.RunFileInterval(cmd.Context(), path, interval)
		},
	}
}

func tailCmd() *cobra.Command {
	var lines int
	cmd := &cobra.Command{
		Use:   "tail <path> [interval]",
		Short: "Отправлять хвост файла по интервалу",
		Long: `Отправка хвоста файла:
    $ tgcli-monitor tail ./logs.txt 10m -l 30
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if info, err := os.Stat(path); err != nil {
				return fmt.Errorf("файла '%s' нет", path)
			} else if info.IsDir() {
				return fmt.Errorf("'%s' — это каталог", path)
			}

			interval := "30m"
			if len(args) == 2 {
				interval = args[1]
			}
			parsed, err := monitor.ParseInterval(interval)
			if err != nil {
				return err
			}
			return newPublisher().RunTail(cmd.Context(), path, lines, parsed)
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "l", 30, "количество строк")
	return cmd
}
