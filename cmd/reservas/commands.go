package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/application"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/config"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/notify"
	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/schedule"
)

type rootOptions struct {
	envFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "reservas",
		Short: "Reserva de salas e equipamentos escolares",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile == "" {
				return nil
			}
			return config.LoadDotEnv(opts.envFile)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "arquivo .env carregado antes das variáveis RESERVAS_*")

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(migrateCmd())
	cmd.AddCommand(createAdminCmd())
	cmd.AddCommand(settingsCmd())
	cmd.AddCommand(gridCmd())
	cmd.AddCommand(watchCmd())
	return cmd
}

// loadRuntime reads the configuration and builds the logger for commands
// that touch the database.
func loadRuntime(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Inicia a API HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func migrateCmd() *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Aplica as migrações pendentes do banco de dados",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if statusOnly {
				storage, err := openStorageWithoutMigrations(ctx, cfg.SQLiteDSN, logger)
				if err != nil {
					return err
				}
				defer storage.Close()

				status, err := storage.MigrationStatus(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "versão atual: %s\n", status.CurrentVersion)
				fmt.Fprintf(out, "pendentes: %d\n", status.PendingCount)
				for _, pending := range status.PendingMigrations {
					fmt.Fprintf(out, "  %s %s\n", pending.Version, pending.Description)
				}
				return nil
			}

			storage, err := openStorage(ctx, cfg.SQLiteDSN, logger)
			if err != nil {
				return err
			}
			defer storage.Close()

			status, err := storage.MigrationStatus(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "banco atualizado na versão %s\n", status.CurrentVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "apenas mostra as migrações pendentes")
	return cmd
}

func createAdminCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Cria uma conta de administrador",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" {
				return errors.New("informe --name e --email")
			}
			password, err := promptPassword(cmd)
			if err != nil {
				return err
			}

			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			storage, err := openStorage(ctx, cfg.SQLiteDSN, logger)
			if err != nil {
				return err
			}
			defer storage.Close()

			svc, err := newServices(storage, cfg, integrations{}, logger)
			if err != nil {
				return err
			}
			user, err := svc.Users.CreateUser(ctx, application.CreateUserParams{
				Principal: application.SystemPrincipal(),
				Input: application.UserInput{
					Name:     name,
					Email:    email,
					Role:     application.RoleAdmin,
					Password: password,
				},
			})
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "administrador criado: %s <%s> (%s)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "nome do administrador")
	cmd.Flags().StringVar(&email, "email", "", "e-mail de login")
	return cmd
}

// promptPassword reads the password without echo when stdin is a terminal
// and as a single line otherwise.
func promptPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Senha: ")
		first, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		fmt.Fprint(cmd.ErrOrStderr(), "Confirme a senha: ")
		second, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", errors.New("as senhas não conferem")
		}
		return string(first), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("senha não informada")
	}
	return password, nil
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Gerencia as configurações de horário",
	}
	cmd.AddCommand(settingsImportCmd())
	return cmd
}

func settingsImportCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Substitui as configurações pelo conteúdo de um arquivo YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := schedule.LoadSettingsFile(file)
			if err != nil {
				return err
			}
			blocks := doc.ClassBlocks
			if len(blocks) == 0 {
				if blocks, err = doc.GeneratedBlocks(); err != nil {
					return err
				}
			}

			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			storage, err := openStorage(ctx, cfg.SQLiteDSN, logger)
			if err != nil {
				return err
			}
			defer storage.Close()

			svc, err := newServices(storage, cfg, integrations{}, logger)
			if err != nil {
				return err
			}
			saved, err := svc.Settings.UpdateSettings(ctx, application.UpdateSettingsParams{
				Principal: application.SystemPrincipal(),
				Input: application.SettingsInput{
					StartTime:         doc.StartTime,
					EndTime:           doc.EndTime,
					ClassBlockMinutes: doc.ClassBlockMinutes,
					OperatingDays:     doc.OperatingDays,
					ClassBlocks:       blocks,
					Breaks:            doc.Breaks,
					ResourceTags:      doc.ResourceTags,
				},
			})
			if err != nil {
				return describeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configurações importadas: %s-%s, %d blocos, %d intervalos\n",
				saved.StartTime, saved.EndTime, len(saved.ClassBlocks), len(saved.Breaks))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "arquivo YAML com as configurações")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Acompanha as alterações de reservas publicadas no Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled() {
				return errors.New("RESERVAS_REDIS_ADDR não configurado")
			}
			ctx := cmd.Context()
			client, err := notify.Dial(ctx, cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()

			sub := client.Subscribe(ctx, cfg.Redis.Channel)
			defer sub.Close()

			out := cmd.OutOrStdout()
			err = notify.Listen(ctx, sub.Channel(), func(event notify.Event) error {
				return writeEvent(out, event, cfg.Location)
			}, logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func writeEvent(w io.Writer, event notify.Event, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	start, end := event.Start.In(loc), event.End.In(loc)
	_, err := fmt.Fprintf(w, "%s %s recurso=%s %s %s-%s %s\n",
		event.OccurredAt.In(loc).Format("15:04:05"), event.Kind, event.ResourceID,
		start.Format("2006-01-02"), start.Format("15:04"), end.Format("15:04"), event.Status)
	return err
}

func gridCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Mostra os blocos de aula e horários gerados a partir de um arquivo YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := schedule.LoadSettingsFile(file)
			if err != nil {
				return err
			}
			blocks, err := doc.GeneratedBlocks()
			if err != nil {
				return err
			}
			writeGrid(cmd.OutOrStdout(), blocks, schedule.EnumerateTimeSlots(blocks, doc.Breaks))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "arquivo YAML com as configurações")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func writeGrid(w io.Writer, blocks []schedule.Block, slots schedule.TimeSlots) {
	fmt.Fprintln(w, "Blocos de aula:")
	for i, block := range blocks {
		fmt.Fprintf(w, "  %2d. %s-%s\n", i+1, block.StartTime, block.EndTime)
	}
	fmt.Fprintf(w, "Inícios: %s\n", strings.Join(slots.Starts, " "))
	fmt.Fprintf(w, "Términos: %s\n", strings.Join(slots.Ends, " "))
}

// describeError flattens validation errors into one line for the terminal.
func describeError(err error) error {
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) || len(vErr.FieldErrors) == 0 {
		return err
	}
	fields := make([]string, 0, len(vErr.FieldErrors))
	for field, message := range vErr.FieldErrors {
		fields = append(fields, field+": "+message)
	}
	sort.Strings(fields)
	return fmt.Errorf("%w (%s)", err, strings.Join(fields, "; "))
}
