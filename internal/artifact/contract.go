package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"github.com/doriangym/contratos-backend/internal/domain"
)

// Bounding boxes in mm. Images are scaled down to fit, never up.
const (
	signatureBoxW = 60.0
	signatureBoxH = 30.0
	photoBoxW     = 40.0
	photoBoxH     = 40.0
	logoW         = 50.0
)

type contractSection struct {
	title   string
	clauses []string
}

// The clause copy is fixed legal text reproduced verbatim; it is not
// data-driven and must not be edited to "fix" wording.
var contractSections = []contractSection{
	{
		title: "1. Normas de Funcionamiento",
		clauses: []string{
			"1.1 Está prohibido fumar dentro de las instalaciones.",
			"1.2 El consumo del alcohol o sustancias sujetas a fiscalización está terminantemente prohibido en las instalaciones.",
			"1.3 No se permite el consumo de alimentos dentro de las instalaciones, salvo en las zonas expresamente habilitadas para ello.",
			"1.4 Está prohibida la entrada de animales a las instalaciones.",
			"1.5 Se deberá usar ropa y calzados adecuados para las actividades y servicios prestados.",
		},
	},
	{
		title: "2. Vestuarios y Casilleros",
		clauses: []string{
			"2.1 DORIAN GIMNASIO no se responsabiliza de pérdidas, daños materiales, sustracción de dinero o de otros artículos de valor que se deje en los casilleros.",
			"2.2 No está permitido afeitarse en las duchas por motivos de higiene, sanitarios y de seguridad.",
			"2.3 Se ruega dejar los vestidores de la misma manera en que fueron encontrados.",
		},
	},
	{
		title: "3. Responsabilidad",
		clauses: []string{
			"3.1 GIMNASIO DORIAN no será responsable de los problemas de salud que pueda sufrir a consecuencia del \"mal\" uso de nuestras instalaciones o de nuestros programas de ejercicios.",
			"3.2 Adicionalmente, GIMNASIO DORIAN no se hará responsable en caso de lesión debido a:",
			"A. No prestar atención indicaciones del entrenador.",
			"B. No realizar la debida preparación corporal para realizar la rutina de entrenamiento, es decir, calentamiento.",
			"C. Afecciones cutáneas debido al no uso de la toalla.",
			"D. Utilizar ropa indebida para realizar ejercicio.",
			"E. Mal uso de las máquinas y demás implementos del Gimnasio.",
			"F. Ejecución de los ejercicios sin realizar la técnica correctamente.",
			"G. No haber hecho uso del instructor.",
			"H. Por no comunicar lesiones o circunstancias de salud anteriores.",
			"I. Por no utilizar implementos de seguridad durante el entrenamiento, como: cinturón, guantes, vendas, agarraderas, entre otros.",
			"J. Accidentes ocasionados por terceros, sin perjuicio de la posibilidad de exigirle al causante del daño, la reparación debida.",
			"K. Irrespeto a los protocolos de las clases grupales.",
			"L. Ingresar en estado etílico o bajo el efecto de sustancias estupefacientes.",
			"M. Por no haber informado de padecer algún desorden alimenticio o cualquier otra enfermedad.",
			"N. Por no alimentarse de una manera correcta antes, durante y después de realizar los ejercicios.",
		},
	},
	{
		title: "4. Incumplimiento",
		clauses: []string{
			"4.1 En caso de incumplimiento, GIMNASIO DORIAN se reserva la posibilidad de expulsar a dicho usuario, sin restitución de gastos y sin perjuicio de las acciones legales que pudieran derivar.",
		},
	},
	{
		title: "5. Política de Congelamiento de Planes",
		clauses: []string{
			"Los planes no serán sujetos a devoluciones o extensiones, y tendrán validez durante el tiempo y por el monto acordado.",
		},
	},
}

// ContractGenerator renders the membership contract PDF from a member
// snapshot plus the stored signature and photo blobs.
type ContractGenerator struct {
	logoPath string
}

func NewContractGenerator(assetsDir string) *ContractGenerator {
	return &ContractGenerator{
		logoPath: filepath.Join(assetsDir, "logo-dorian.png"),
	}
}

// Generate returns the contract PDF bytes. Both blobs are mandatory here:
// generation fails loudly with ErrMissingArtifact instead of emitting a
// contract with a blank signature or photo.
func (g *ContractGenerator) Generate(m *domain.Member, firma, foto []byte) ([]byte, error) {
	if len(firma) == 0 || len(foto) == 0 {
		return nil, domain.ErrMissingArtifact
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header and branding block
	pdf.SetFont("Helvetica", "", 20)
	pdf.CellFormat(0, 10, tr("Bienvenid@ a:"), "", 1, "L", false, 0, "")
	if _, err := os.Stat(g.logoPath); err == nil {
		pdf.ImageOptions(g.logoPath, 150, 10, logoW, 0, false,
			gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}, 0, "")
	}
	pdf.Ln(12)

	for _, section := range contractSections {
		pdf.SetFont("Helvetica", "U", 14)
		pdf.CellFormat(0, 8, tr(section.title), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		pdf.SetFont("Helvetica", "", 12)
		for _, clause := range section.clauses {
			pdf.MultiCell(0, 5.5, tr(clause), "", "L", false)
		}
		pdf.Ln(6)
	}

	// Binding statement and member data
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 12)
	binding := fmt.Sprintf(
		"Yo, %s, con cédula de ciudadanía %s, declaro que he leído y acepto los términos y condiciones.",
		m.FullName(), m.Cedula,
	)
	pdf.MultiCell(0, 6, tr(binding), "", "L", false)
	pdf.Ln(4)

	details := []string{
		fmt.Sprintf("Fecha: %s", m.FechaInscripcion.Format("02/01/2006")),
		fmt.Sprintf("Plan contratado: %s", m.Plan),
		fmt.Sprintf("Dirección: %s", m.Direccion),
		fmt.Sprintf("Teléfono: %s", m.Telefono),
		fmt.Sprintf("Correo: %s", m.Correo),
	}
	for _, line := range details {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.CellFormat(0, 6, tr("Firma del usuario:"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	if err := embedImage(pdf, "firma-"+m.Cedula, "PNG", firma, signatureBoxW, signatureBoxH); err != nil {
		return nil, err
	}
	pdf.Ln(8)

	pdf.CellFormat(0, 6, tr("Foto del usuario:"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	if err := embedImage(pdf, "foto-"+m.Cedula, "JPG", foto, photoBoxW, photoBoxH); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render contract: %w", err)
	}
	return buf.Bytes(), nil
}

// embedImage places image bytes at the current position, scaled to fit the
// box while keeping aspect ratio. Images smaller than the box keep their
// natural size.
func embedImage(pdf *gofpdf.Fpdf, name, imageType string, data []byte, boxW, boxH float64) error {
	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() {
		return fmt.Errorf("failed to decode %s image: %w", name, pdf.Error())
	}

	w, h := fitBox(info.Width(), info.Height(), boxW, boxH)
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), w, h, true, opts, 0, "")
	if pdf.Err() {
		return fmt.Errorf("failed to embed %s image: %w", name, pdf.Error())
	}
	return nil
}

func fitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1
	}
	return w * scale, h * scale
}
