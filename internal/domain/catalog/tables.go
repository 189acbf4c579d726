package catalog

// Fixed generation tables. Every derived attribute of the catalog rotates
// over these slices, keyed by season and module indices, which keeps the
// whole 400-item catalog reproducible without any stored data.

// seasonTitles holds one narrative title per season, in season order.
var seasonTitles = [SeasonCount]string{
	"O Despertar da Máquina",
	"Circuitos da Imaginação",
	"A Lógica dos Robôs",
	"Visão Computacional",
	"Linguagem das Estrelas",
	"O Futuro das Redes",
	"Ética em Silício",
	"Algoritmos Criativos",
	"Deep Learning Profundo",
	"Interface Humano-IA",
	"Agentes Inteligentes",
	"Big Data Galáctico",
	"Segurança na Matrix",
	"IA e Sustentabilidade",
	"Medicina Digital",
	"Exploração Espacial com IA",
	"Cidades Inteligentes",
	"O Jogo da Imitação",
	"Neuro-evolução",
	"Singularidade e Além",
}

// seasonVisualThemes feeds the thumbnail keyword query, one theme per season.
var seasonVisualThemes = [SeasonCount]string{
	"cyberpunk", "circuit", "robotics", "optics", "cosmos",
	"internet", "justice", "painting", "data", "cyborg",
	"automation", "statistics", "firewall", "nature", "biology",
	"rocket", "skyscraper", "hacker", "evolution", "energy",
}

// topics rotate across modules; the offset by season spreads each topic
// over different module slots season to season.
var topics = [20]string{
	"Neurônios Digitais", "Lógica Binária", "Sensores Ativos", "Processamento de Imagem",
	"NLP Básico", "Redes Neurais", "Aprendizado por Reforço", "IA Generativa",
	"Ética e Viés", "Robótica Móvel", "Visão de Máquina", "Dados em Nuvem",
	"Criptografia", "Simulações de Vida", "Bio-informática", "Sistemas Especialistas",
	"Fronteiras da IA", "Consciência Sintética", "Hardware Futurista", "A Grande Integração",
}

// moduleTopic returns the topic for module m (1-based) of season index s (0-based).
func moduleTopic(m, s int) string {
	return topics[(m-1+s)%len(topics)]
}

// topicKeywords maps each topic to the keyword used in thumbnail queries.
var topicKeywords = map[string]string{
	"Neurônios Digitais":      "neuron",
	"Lógica Binária":          "coding",
	"Sensores Ativos":         "electronics",
	"Processamento de Imagem": "camera",
	"NLP Básico":              "chatbot",
	"Redes Neurais":           "ai",
	"Aprendizado por Reforço": "gamer",
	"IA Generativa":           "art",
	"Ética e Viés":            "ethics",
	"Robótica Móvel":          "drone",
	"Visão de Máquina":        "scanner",
	"Dados em Nuvem":          "server",
	"Criptografia":            "security",
	"Simulações de Vida":      "simulation",
	"Bio-informática":         "dna",
	"Sistemas Especialistas":  "scientist",
	"Fronteiras da IA":        "futuristic",
	"Consciência Sintética":   "brain",
	"Hardware Futurista":      "microchip",
	"A Grande Integração":     "connection",
}

// stockVideos is the pool of stream URLs assigned to items.
var stockVideos = [15]string{
	"https://assets.mixkit.co/videos/preview/mixkit-artificial-intelligence-interface-of-a-computer-screen-31367-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-software-developer-working-on-his-computer-38541-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-close-up-of-a-circuit-board-with-glowing-lights-41078-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-robot-hand-pointing-a-finger-at-the-screen-31368-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-connection-of-digital-network-nodes-and-lines-31366-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-close-up-of-a-robotic-arm-working-in-a-factory-31370-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-futuristic-holographic-projection-of-a-brain-31371-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-digital-animation-of-binary-code-and-numbers-31365-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-blue-circuit-board-background-41079-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-man-working-with-digital-screen-31369-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-hands-of-a-programmer-typing-on-a-keyboard-38543-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-digital-server-room-with-blue-lights-31372-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-motherboard-and-electronic-components-41080-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-close-up-of-electronic-circuits-and-components-41081-large.mp4",
	"https://assets.mixkit.co/videos/preview/mixkit-woman-interacting-with-a-holographic-screen-31373-large.mp4",
}

// videoBuckets groups stockVideos indices by visual family so that a topic
// always draws from streams that match its subject.
var videoBuckets = map[string][]int{
	"AI_CORE":  {0, 6, 7},
	"CODING":   {1, 10, 11},
	"HARDWARE": {2, 8, 12, 13},
	"ROBOTICS": {3, 5},
	"NETWORK":  {4, 9, 14},
}

// topicVideoBucket maps each topic to its video bucket.
var topicVideoBucket = map[string]string{
	"Neurônios Digitais":      "AI_CORE",
	"Lógica Binária":          "CODING",
	"Sensores Ativos":         "HARDWARE",
	"Processamento de Imagem": "NETWORK",
	"NLP Básico":              "AI_CORE",
	"Redes Neurais":           "NETWORK",
	"Aprendizado por Reforço": "CODING",
	"IA Generativa":           "AI_CORE",
	"Ética e Viés":            "NETWORK",
	"Robótica Móvel":          "ROBOTICS",
	"Visão de Máquina":        "NETWORK",
	"Dados em Nuvem":          "CODING",
	"Criptografia":            "CODING",
	"Simulações de Vida":      "AI_CORE",
	"Bio-informática":         "HARDWARE",
	"Sistemas Especialistas":  "AI_CORE",
	"Fronteiras da IA":        "NETWORK",
	"Consciência Sintética":   "AI_CORE",
	"Hardware Futurista":      "HARDWARE",
	"A Grande Integração":     "ROBOTICS",
}
