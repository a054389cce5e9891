// Package naf maps French NAF/APE activity codes to human-readable labels.
// The registry API returns bare codes like "62.02A"; profiles display the
// label when we know it and fall back to the code when we don't.
package naf

import "strings"

// labels covers the activity divisions the marketplace actually sees. The
// full nomenclature has ~730 entries; unknown codes fall through to Label's
// fallback.
var labels = map[string]string{
	"01.61Z": "Activités de soutien aux cultures",
	"10.71C": "Boulangerie et boulangerie-pâtisserie",
	"25.62B": "Mécanique industrielle",
	"33.12Z": "Réparation de machines et équipements mécaniques",
	"41.20A": "Construction de maisons individuelles",
	"43.21A": "Travaux d'installation électrique dans tous locaux",
	"43.22A": "Travaux d'installation d'eau et de gaz en tous locaux",
	"43.22B": "Travaux d'installation d'équipements thermiques et de climatisation",
	"43.32A": "Travaux de menuiserie bois et PVC",
	"43.34Z": "Travaux de peinture et vitrerie",
	"43.39Z": "Autres travaux de finition",
	"45.20A": "Entretien et réparation de véhicules automobiles légers",
	"47.91A": "Vente à distance sur catalogue général",
	"49.42Z": "Services de déménagement",
	"56.10A": "Restauration traditionnelle",
	"56.21Z": "Services des traiteurs",
	"58.29C": "Édition de logiciels applicatifs",
	"62.01Z": "Programmation informatique",
	"62.02A": "Conseil en systèmes et logiciels informatiques",
	"62.03Z": "Gestion d'installations informatiques",
	"63.11Z": "Traitement de données, hébergement et activités connexes",
	"68.20A": "Location de logements",
	"69.10Z": "Activités juridiques",
	"69.20Z": "Activités comptables",
	"70.22Z": "Conseil pour les affaires et autres conseils de gestion",
	"71.11Z": "Activités d'architecture",
	"73.11Z": "Activités des agences de publicité",
	"74.10Z": "Activités spécialisées de design",
	"74.20Z": "Activités photographiques",
	"77.21Z": "Location et location-bail d'articles de loisirs et de sport",
	"81.21Z": "Nettoyage courant des bâtiments",
	"81.30Z": "Services d'aménagement paysager",
	"82.19Z": "Photocopie, préparation de documents et autres activités de soutien de bureau",
	"85.59B": "Autres enseignements",
	"88.91A": "Accueil de jeunes enfants",
	"95.11Z": "Réparation d'ordinateurs et d'équipements périphériques",
	"95.21Z": "Réparation de produits électroniques grand public",
	"95.29Z": "Réparation d'autres biens personnels et domestiques",
	"96.02A": "Coiffure",
	"96.02B": "Soins de beauté",
}

// Normalize brings a code into the dotted registry form: "6202A" → "62.02A".
// Already-dotted codes pass through; anything unrecognizable is returned
// unchanged.
func Normalize(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if len(c) == 5 && c[2] != '.' {
		return c[:2] + "." + c[2:]
	}
	return c
}

// Label resolves a NAF/APE code to its label. Unknown codes come back as the
// normalized code itself so callers always have something displayable.
func Label(code string) string {
	n := Normalize(code)
	if l, ok := labels[n]; ok {
		return l
	}
	return n
}
