package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bodul/gridwit/internal/client"
	"github.com/bodul/gridwit/internal/config"
	"github.com/bodul/gridwit/internal/database"
	"github.com/bodul/gridwit/internal/grid"
	"github.com/bodul/gridwit/internal/importer"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gridwit",
		Short:         "Mots croisés à plusieurs, dans le navigateur ou le terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Lancer le serveur HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	playCmd := &cobra.Command{
		Use:   "play [puzzle-id]",
		Short: "Jouer une grille dans le terminal (grille du jour par défaut)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPlay,
	}

	importCmd := &cobra.Command{
		Use:   "import [dir]",
		Short: "Importer les grilles archivées au format JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().Bool("replace", false, "Supprimer toutes les grilles avant l'import")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lister ou rechercher les grilles du serveur",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	listCmd.Flags().String("author", "", "Auteur (sous-chaîne)")
	listCmd.Flags().String("date", "", "Date exacte (M/J/AAAA)")
	listCmd.Flags().String("word", "", "Mot dans les réponses (à une lettre près)")
	listCmd.Flags().String("clue", "", "Texte dans les définitions")
	listCmd.Flags().Int("page", 1, "Page")
	listCmd.Flags().Int("per-page", 10, "Grilles par page (max 50)")

	rootCmd.AddCommand(serveCmd, playCmd, importCmd, listCmd)
	return rootCmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("ouverture de la base : %w", err)
	}
	defer db.Close()
	log.Printf("Base de données prête (%s)", cfg.Database.Path)

	// A nil *GeminiClient must not reach the server as a non-nil interface.
	var analyzer ImageAnalyzer
	if cfg.GCP.ProjectID != "" {
		gemini, err := NewGeminiClient(ctx, cfg.GCP.ProjectID, cfg.GCP.Region, cfg.Gemini.Model)
		if err != nil {
			return fmt.Errorf("impossible d'initialiser Gemini : %w", err)
		}
		defer gemini.Close()
		analyzer = gemini
		log.Printf("Client Gemini initialisé (projet: %s)", cfg.GCP.ProjectID)
	} else {
		log.Println("gcp.project_id non défini, analyse d'image désactivée")
	}

	srv := NewServer(NewStore(), database.NewPuzzleRepo(db), analyzer, cfg.Puzzle.Size)
	srv.Start(ctx)

	httpSrv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: srv}
	go func() {
		<-ctx.Done()
		httpSrv.Shutdown(context.Background())
	}()

	log.Printf("Serveur démarré sur http://localhost:%s", cfg.Server.Port)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Println("Serveur arrêté")
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	api := client.New(cfg.Client.APIURL)

	var p *database.Puzzle
	if len(args) == 1 {
		id, perr := strconv.ParseInt(args[0], 10, 64)
		if perr != nil {
			return fmt.Errorf("identifiant invalide : %q", args[0])
		}
		p, err = api.Get(cmd.Context(), id)
	} else {
		p, err = api.Daily(cmd.Context())
	}
	if err != nil {
		return fmt.Errorf("puzzle unavailable: %w", err)
	}

	board, err := NewBoard(p, cfg.Puzzle.Size)
	if err != nil {
		var fe *grid.FormatError
		if errors.As(err, &fe) {
			return fmt.Errorf("puzzle unavailable: %w", err)
		}
		return err
	}

	_, err = tea.NewProgram(newPlayModel(board), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := cfg.Import.Dir
	if len(args) == 1 {
		dir = args[0]
	}

	db, err := database.OpenMigrated(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("ouverture de la base : %w", err)
	}
	defer db.Close()

	repo := database.NewPuzzleRepo(db)
	if replace, _ := cmd.Flags().GetBool("replace"); replace {
		if err := repo.DeleteAll(cmd.Context()); err != nil {
			return fmt.Errorf("purge des grilles : %w", err)
		}
		log.Println("Grilles existantes supprimées")
	}

	res, err := importer.Dir(cmd.Context(), os.DirFS(dir), repo, cfg.Puzzle.Size)
	if err != nil {
		return err
	}
	log.Printf("Import terminé : %d grilles importées, %d ignorées, %d définitions sans case", res.Imported, res.Skipped, res.Dropped)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	params := database.SearchParams{}
	params.Author, _ = flags.GetString("author")
	params.Date, _ = flags.GetString("date")
	params.Word, _ = flags.GetString("word")
	params.Clue, _ = flags.GetString("clue")
	params.Page, _ = flags.GetInt("page")
	params.PerPage, _ = flags.GetInt("per-page")

	page, err := listPuzzles(cmd.Context(), client.New(cfg.Client.APIURL), params)
	if err != nil {
		return err
	}
	printPage(cmd.OutOrStdout(), page)
	return nil
}

// listPuzzles pages through every puzzle, or searches when a filter is set.
func listPuzzles(ctx context.Context, api *client.Client, params database.SearchParams) (database.Page, error) {
	if params.Author == "" && params.Date == "" && params.Word == "" && params.Clue == "" {
		return api.List(ctx, params.Page, params.PerPage)
	}
	return api.Search(ctx, params)
}

func printPage(w io.Writer, page database.Page) {
	for _, p := range page.Puzzles {
		fmt.Fprintf(w, "%6d  %-10s  %s (%d définitions)\n", p.ID, p.DatePublished, p.Author, len(p.Clues))
	}
	fmt.Fprintf(w, "page %d/%d, %d grilles\n", page.Page, page.TotalPages, page.Total)
}
