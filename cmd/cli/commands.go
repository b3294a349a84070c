package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lingonote/lingonote/internal/record"
	"github.com/lingonote/lingonote/internal/sync"
)

var (
	targetLang string
	sourceLang string

	vocabPOS           string
	vocabExample       string
	vocabPronunciation string
	vocabTags          []string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text and save it to history",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := nb.translate(cmd.Context(), strings.Join(args, " "), targetLang, sourceLang)
		if err != nil {
			return err
		}
		cmd.Printf("%s\n(detected: %s)\n", res.TranslatedText, res.DetectedLanguage)
		return nil
	},
}

var detectCmd = &cobra.Command{
	Use:   "detect [text...]",
	Short: "Detect the language of text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, err := nb.client.DetectLanguage(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		cmd.Println(lang)
		return nil
	},
}

var translateFileCmd = &cobra.Command{
	Use:   "translate-file PATH",
	Short: "Translate a PDF, DOCX or text document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := nb.translateFile(cmd.Context(), args[0], targetLang)
		if err != nil {
			return err
		}
		cmd.Printf("%s\n(detected: %s)\n", res.TranslatedText, res.DetectedLanguage)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show translation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := nb.listTranslations(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			cmd.Println("No translations yet.")
			return nil
		}
		for _, t := range items {
			cmd.Printf("%s  [%s] %s -> %s  (%s)\n",
				recordID(t.ID, t.LocalID),
				t.DetectedLanguage,
				t.OriginalText,
				t.TranslatedText,
				t.Timestamp.Local().Format("2006-01-02 15:04"),
			)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete one history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := nb.deleteTranslation(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("translation %s not found", args[0])
		}
		cmd.Println("Deleted.")
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the whole translation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := nb.clearTranslations(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("Deleted %d translations.\n", n)
		return nil
	},
}

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "List vocabulary notes",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := nb.listVocabulary(cmd.Context())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			cmd.Println("No vocabulary notes yet.")
			return nil
		}
		for _, v := range items {
			cmd.Printf("%s  %s\n", recordID(v.ID, v.LocalID), formatNote(v))
		}
		return nil
	},
}

var vocabAddCmd = &cobra.Command{
	Use:   "add WORD MEANING",
	Short: "Add a vocabulary note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := nb.saveVocabulary(cmd.Context(), record.VocabularyInput{
			Word:          args[0],
			Meaning:       args[1],
			PartOfSpeech:  vocabPOS,
			Example:       vocabExample,
			Pronunciation: vocabPronunciation,
			Tags:          vocabTags,
		})
		if err != nil {
			return err
		}
		cmd.Printf("Saved %s (%s).\n", v.Word, recordID(v.ID, v.LocalID))
		return nil
	},
}

var vocabDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a vocabulary note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := nb.deleteVocabulary(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("vocabulary note %s not found", args[0])
		}
		cmd.Println("Deleted.")
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login [TOKEN]",
	Short: "Sign in with a session token",
	Long: `Sign in with the token returned by the server after Google sign-in.

Open the sign-in URL in a browser, finish signing in and pass the "token"
field of the response to this command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			cmd.Printf("Open %s in a browser, then run:\n  lingonote login TOKEN\n", nb.client.SignInURL())
			return nil
		}

		report, err := nb.useToken(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !nb.signedIn() {
			return fmt.Errorf("token was not accepted by the server")
		}
		if err := saveToken(dataDir, args[0]); err != nil {
			return err
		}
		cmd.Printf("Signed in as %s.\n", nb.user.Email)
		printSyncReport(cmd, report)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and return to guest mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		if nb.client.Token() != "" {
			if err := nb.client.SignOut(cmd.Context()); err != nil {
				logger.WithError(err).Warn("Server sign-out failed")
			}
		}
		if err := removeToken(dataDir); err != nil {
			return err
		}
		if _, err := nb.useToken(cmd.Context(), ""); err != nil {
			return err
		}
		cmd.Println("Signed out.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sign-in state and local record counts",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("Server:  %s\n", serverURL)
		cmd.Printf("Mode:    %s\n", nb.mode())
		if nb.user != nil {
			cmd.Printf("User:    %s <%s>\n", nb.user.Name, nb.user.Email)
		}
		if !nb.local.Available() {
			cmd.Println("Local:   unavailable")
			return
		}
		cmd.Printf("Local:   %d translations, %d vocabulary notes\n",
			nb.local.Len(record.KindTranslation),
			nb.local.Len(record.KindVocabulary),
		)
	},
}

func init() {
	for _, c := range []*cobra.Command{translateCmd, translateFileCmd} {
		c.Flags().StringVarP(&targetLang, "to", "t", "en", "target language")
	}
	translateCmd.Flags().StringVarP(&sourceLang, "from", "f", "", "source language (detected when empty)")

	vocabAddCmd.Flags().StringVar(&vocabPOS, "pos", "", "part of speech ("+strings.Join(record.PartsOfSpeech, ", ")+")")
	vocabAddCmd.Flags().StringVar(&vocabExample, "example", "", "example sentence")
	vocabAddCmd.Flags().StringVar(&vocabPronunciation, "pronunciation", "", "pronunciation")
	vocabAddCmd.Flags().StringSliceVar(&vocabTags, "tag", nil, "tag (repeatable)")

	historyCmd.AddCommand(historyDeleteCmd, historyClearCmd)
	vocabCmd.AddCommand(vocabAddCmd, vocabDeleteCmd)
	rootCmd.AddCommand(translateCmd, detectCmd, translateFileCmd, historyCmd, vocabCmd, loginCmd, logoutCmd, statusCmd)
}

func formatNote(v record.Vocabulary) string {
	var b strings.Builder
	b.WriteString(v.Word)
	if v.Pronunciation != "" {
		fmt.Fprintf(&b, " /%s/", v.Pronunciation)
	}
	if v.PartOfSpeech != "" {
		fmt.Fprintf(&b, " (%s)", v.PartOfSpeech)
	}
	fmt.Fprintf(&b, ": %s", v.Meaning)
	if v.Example != "" {
		fmt.Fprintf(&b, "  e.g. %q", v.Example)
	}
	if len(v.Tags) > 0 {
		fmt.Fprintf(&b, "  #%s", strings.Join(v.Tags, " #"))
	}
	return b.String()
}

func printSyncReport(cmd *cobra.Command, report sync.Report) {
	if !report.Ran {
		return
	}
	uploaded, attempted := 0, 0
	for _, k := range report.Kinds {
		uploaded += k.Uploaded
		attempted += k.Attempted
	}
	if attempted == 0 {
		return
	}
	cmd.Printf("Uploaded %d of %d local records to your account.\n", uploaded, attempted)
	if dropped := report.Dropped(); dropped > 0 {
		cmd.Printf("%d records could not be uploaded and were discarded.\n", dropped)
	}
}
